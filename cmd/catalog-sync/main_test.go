package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_MissingConfiguration(t *testing.T) {
	for _, key := range []string{"FTP_HOST", "FTP_USERNAME", "FTP_PASSWORD", "XML_FILENAME", "SALSIFY_API_TOKEN"} {
		t.Setenv(key, "")
	}
	t.Setenv("FTP_USERNAME", "testuser")

	var out bytes.Buffer
	cmd := newRootCommand(&out)
	cmd.SetArgs([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Missing required environment variables: FTP_HOST, FTP_PASSWORD, XML_FILENAME, SALSIFY_API_TOKEN", err.Error())
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		want    string
		wantErr string
	}{
		{
			name:   "text",
			level:  "info",
			format: "text",
			want:   `msg="Found 3 products"`,
		},
		{
			name:   "json",
			level:  "debug",
			format: "json",
			want:   `"msg":"Found 3 products"`,
		},
		{
			name:    "bad level",
			level:   "loud",
			format:  "text",
			wantErr: "invalid log level",
		},
		{
			name:    "bad format",
			level:   "info",
			format:  "xml",
			wantErr: "unknown log format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := newLogger(&buf, tt.level, tt.format)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			logger.Info("Found 3 products")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
