package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winefeed/catalog-sync/pkg/syncer"
)

type writeCloser struct {
	bytes.Buffer
	writeErr error
	closeErr error
	closed   bool
}

func (w *writeCloser) Write(p []byte) (int, error) {
	if w.writeErr != nil {
		return 0, w.writeErr
	}
	return w.Buffer.Write(p)
}

func (w *writeCloser) Close() error {
	w.closed = true
	return w.closeErr
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		writeErr error
		closeErr error
		wantErr  string
	}{
		{
			name: "happy path",
		},
		{
			name:     "close fails",
			closeErr: errors.New("no space left on device"),
			wantErr:  "close error: no space left on device",
		},
		{
			name:     "write fails",
			writeErr: errors.New("input/output error"),
			closeErr: errors.New("file already closed"),
			wantErr:  "unable to encode report: input/output error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &writeCloser{writeErr: tt.writeErr, closeErr: tt.closeErr}
			err := encode(w, New(syncer.Summary{Found: 1, Succeeded: 1}, nil))
			assert.True(t, w.closed)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Contains(t, w.String(), `"status": "completed"`)
		})
	}
}
