// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cne-ai/internal/httputil"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapa.docx")
	require.NoError(t, os.WriteFile(path, []byte("docx bytes"), 0o644))
	return path
}

func TestUpload(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ExtractPath, r.URL.Path)

		f, hdr, err := r.FormFile(FieldName)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "mapa.docx", hdr.Filename)
		assert.Equal(t, "docx bytes", string(data))

		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("X-Job-ID", "job-42")
		w.Write([]byte("PK zip"))
	}))
	defer ts.Close()

	out := filepath.Join(t.TempDir(), "nested", "out.zip")
	res, err := Upload(context.Background(), ts.URL+"/", writeInput(t), out, WithHTTPClient(ts.Client()), WithMaxRetries(2))
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, Result{Path: out, JobID: "job-42", Size: 6}, res)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "PK zip", string(data))
}

func TestUpload_APIErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error", http.StatusUnprocessableEntity, `{"error":"The document does not contain tables with data."}`, "The document does not contain tables with data."},
		{"plain text", http.StatusInternalServerError, "boom\n", "boom"},
		{"empty body", http.StatusRequestEntityTooLarge, "", "Request Entity Too Large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			out := filepath.Join(t.TempDir(), "out.zip")
			_, err := Upload(context.Background(), ts.URL, writeInput(t), out, WithHTTPClient(ts.Client()))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.NoFileExists(t, out)
		})
	}
}

func TestUpload_MissingInput(t *testing.T) {
	_, err := Upload(context.Background(), "http://localhost", filepath.Join(t.TempDir(), "nope.docx"), "out.zip")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
