package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winefeed/catalog-sync/pkg/catalog"
	"github.com/winefeed/catalog-sync/pkg/types"
)

var record = types.Record{
	"SKU":            "1234",
	"Item Name":      "XYZ Name",
	"Brand":          "Generic Wine Co.",
	"Color":          "red",
	"MSRP":           "9.99",
	"Bottle Size":    "750mL",
	"Alcohol Volume": "0.14",
	"Description":    "Example description.",
}

func TestClient_Publish(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		want       types.Payload
		wantErr    string
		wantStatus int
	}{
		{
			name:       "json response",
			statusCode: http.StatusOK,
			body:       `{"status": "updated"}`,
			want:       types.Payload{"status": "updated"},
		},
		{
			name:       "empty response",
			statusCode: http.StatusNoContent,
			want:       types.Payload{"status": "success"},
		},
		{
			name:       "whitespace response",
			statusCode: http.StatusOK,
			body:       " \n",
			want:       types.Payload{"status": "success"},
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			body:       `{"errors": ["boom"]}`,
			wantErr:    "API Error: 500 - Internal Server Error",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			wantErr:    "API Error: 404 - Not Found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "undecodable body",
			statusCode: http.StatusOK,
			body:       `not json`,
			wantErr:    "unable to decode response body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "/api/v1/products/1234", r.URL.Path)
				assert.Equal(t, "Bearer fake_token", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "application/json", r.Header.Get("Accept"))

				b, err := io.ReadAll(r.Body)
				assert.NoError(t, err)
				var got types.Record
				assert.NoError(t, json.Unmarshal(b, &got))
				assert.Equal(t, record, got)

				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			c := catalog.NewClient(catalog.Option{
				BaseURL: ts.URL + "/api/v1",
				Token:   "fake_token",
			})

			got, err := c.Publish(context.Background(), record)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Nil(t, got)
				assert.Contains(t, err.Error(), tt.wantErr)

				var pubErr *types.PublishError
				require.True(t, errors.As(err, &pubErr))
				assert.Equal(t, "1234", pubErr.SKU)
				assert.Equal(t, tt.wantStatus, pubErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_PublishEscapesSKU(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c := catalog.NewClient(catalog.Option{BaseURL: ts.URL + "/", Token: "t"})
	_, err := c.Publish(context.Background(), types.Record{"SKU": "A 1/2", "Item Name": ""})
	require.NoError(t, err)
	assert.Equal(t, "/products/A%201%2F2", gotPath)
}

func TestClient_PublishTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := catalog.NewClient(catalog.Option{BaseURL: url, Token: "t"})
	got, err := c.Publish(context.Background(), record)
	require.Error(t, err)
	assert.Nil(t, got)

	var pubErr *types.PublishError
	require.True(t, errors.As(err, &pubErr))
	assert.Equal(t, "1234", pubErr.SKU)
	assert.Zero(t, pubErr.StatusCode)
	assert.Contains(t, err.Error(), "API Error:")
}
