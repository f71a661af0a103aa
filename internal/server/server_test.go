// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cne-ai/internal/archive"
	"github.com/pdiddy/cne-ai/internal/docx/docxtest"
	"github.com/pdiddy/cne-ai/internal/jobs"
	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

var resultsBody = docxtest.Paragraph("Results") +
	docxtest.Table(
		[]string{"Party", "Votes"},
		[]string{"PS", "1200"},
	) +
	docxtest.Table([]string{"Turnout", "51%"})

type fixture struct {
	server  *Server
	ts      *httptest.Server
	tempDir string
}

func newFixture(t *testing.T, cfg types.ServerConfig, withHistory bool) fixture {
	t.Helper()
	cfg.TempDir = t.TempDir()

	opts := []Option{WithLogger(zerolog.Nop())}
	if withHistory {
		store, err := jobs.NewStore(types.StoreConfig{Path: filepath.Join(t.TempDir(), "jobs.db")})
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		opts = append(opts, WithJobStore(store), WithArchive(archive.NewFSStore(t.TempDir())))
	}

	s := New(cfg, nil, opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return fixture{server: s, ts: ts, tempDir: cfg.TempDir}
}

func postFile(t *testing.T, url, field, filename string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return data
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestIndex(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	resp, err := http.Get(f.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := string(readBody(t, resp))
	assert.Contains(t, body, `name="document"`)
	assert.Contains(t, body, "Maximum file size: 32 MB.")
	assert.NotContains(t, body, `class="error"`)
}

func TestUpload_ReturnsZip(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	resp := postFile(t, f.ts.URL+"/", FieldName, "mapa.docx", docxtest.Build(t, resultsBody))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="operadores_csv.zip"`, resp.Header.Get("Content-Disposition"))
	assert.NotEmpty(t, resp.Header.Get("X-Job-ID"))
	assert.Equal(t, []string{
		"Operador_A/operator_a_table_1.csv",
		"Operador_A/operator_a_table_2.csv",
		"Operador_B/operator_b_table_1.csv",
		"Operador_B/operator_b_table_2.csv",
	}, zipNames(t, readBody(t, resp)))

	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "uploads are removed after conversion")
}

func TestUpload_ErrorRendersPage(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	resp := postFile(t, f.ts.URL+"/", "other", "mapa.docx", []byte("x"))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := string(readBody(t, resp))
	assert.Contains(t, body, `class="error"`)
	assert.Contains(t, body, msgMissingFile)
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		data       func(t *testing.T) []byte
		wantStatus int
		wantMsg    string
	}{
		{
			name: "missing field", field: "file", filename: "a.docx",
			data:       func(*testing.T) []byte { return []byte("x") },
			wantStatus: http.StatusBadRequest, wantMsg: msgMissingFile,
		},
		{
			name: "empty file", field: FieldName, filename: "a.docx",
			data:       func(*testing.T) []byte { return nil },
			wantStatus: http.StatusBadRequest, wantMsg: msgMissingFile,
		},
		{
			name: "wrong extension", field: FieldName, filename: "a.pdf",
			data:       func(*testing.T) []byte { return []byte("%PDF") },
			wantStatus: http.StatusUnsupportedMediaType, wantMsg: msgNotDocx,
		},
		{
			name: "not a zip", field: FieldName, filename: "a.docx",
			data:       func(*testing.T) []byte { return []byte("plain text") },
			wantStatus: http.StatusUnprocessableEntity, wantMsg: msgInvalidDocx,
		},
		{
			name: "no tables", field: FieldName, filename: "a.docx",
			data:       func(t *testing.T) []byte { return docxtest.Build(t, docxtest.Paragraph("text only")) },
			wantStatus: http.StatusUnprocessableEntity, wantMsg: msgNoTables,
		},
		{
			name: "too large", field: FieldName, filename: "a.docx",
			data:       func(*testing.T) []byte { return bytes.Repeat([]byte("x"), 8192) },
			wantStatus: http.StatusRequestEntityTooLarge, wantMsg: msgTooLarge,
		},
	}

	f := newFixture(t, types.ServerConfig{MaxUploadBytes: 4096}, false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postFile(t, f.ts.URL+"/api/extract", tt.field, tt.filename, tt.data(t))
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var payload map[string]string
			decodeJSON(t, resp, &payload)
			assert.Equal(t, tt.wantMsg, payload["error"])
		})
	}
}

// oversizedSpanBody declares spans far wider than its three-column grid.
const oversizedSpanBody = `<w:tbl>
  <w:tblGrid><w:gridCol/><w:gridCol/><w:gridCol/></w:tblGrid>
  <w:tr>
    <w:tc><w:tcPr><w:gridSpan w:val="4000000000000000000"/></w:tcPr><w:p><w:r><w:t>a</w:t></w:r></w:p></w:tc>
    <w:tc><w:tcPr><w:gridSpan w:val="4000000000000000000"/></w:tcPr><w:p><w:r><w:t>b</w:t></w:r></w:p></w:tc>
    <w:tc><w:tcPr><w:gridSpan w:val="4000000000000000000"/></w:tcPr><w:p><w:r><w:t>c</w:t></w:r></w:p></w:tc>
  </w:tr>
</w:tbl>`

func TestExtract_OversizedSpans(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	resp := postFile(t, f.ts.URL+"/api/extract", FieldName, "spans.docx", docxtest.Build(t, oversizedSpanBody))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{
		"Operador_A/operator_a_table_1.csv",
		"Operador_B/operator_b_table_1.csv",
	}, zipNames(t, readBody(t, resp)))
}

type panickingOperator struct{}

func (panickingOperator) Name() string     { return "P" }
func (panickingOperator) Basename() string { return "panicking_table" }
func (panickingOperator) Apply([]types.Table) []types.Grid {
	panic("makeslice: len out of range")
}

func TestExtract_OperatorPanicIsInternalError(t *testing.T) {
	s := New(types.ServerConfig{TempDir: t.TempDir()}, []operator.Operator{panickingOperator{}}, WithLogger(zerolog.Nop()))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	for range 2 {
		resp := postFile(t, ts.URL+"/api/extract", FieldName, "a.docx", docxtest.Build(t, resultsBody))
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var payload map[string]string
		decodeJSON(t, resp, &payload)
		assert.Equal(t, msgInternal, payload["error"])
	}
}

func TestExtract_NotMultipart(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	resp, err := http.Post(f.ts.URL+"/api/extract", "application/octet-stream", strings.NewReader("raw"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtract_Busy(t *testing.T) {
	f := newFixture(t, types.ServerConfig{MaxConcurrent: 1}, false)
	f.server.sem <- struct{}{}
	defer func() { <-f.server.sem }()

	resp := postFile(t, f.ts.URL+"/api/extract", FieldName, "a.docx", docxtest.Build(t, resultsBody))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, retryAfterSeconds, resp.Header.Get("Retry-After"))
}

func TestJobHistory(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, true)

	resp := postFile(t, f.ts.URL+"/api/extract", FieldName, "mapa.docx", docxtest.Build(t, resultsBody))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	zipData := readBody(t, resp)
	id := resp.Header.Get("X-Job-ID")
	require.NotEmpty(t, id)

	failed := postFile(t, f.ts.URL+"/api/extract", FieldName, "broken.docx", []byte("garbage"))
	require.Equal(t, http.StatusUnprocessableEntity, failed.StatusCode)
	failedID := failed.Header.Get("X-Job-ID")
	require.NotEmpty(t, failedID)

	t.Run("list", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/jobs?limit=10")
		require.NoError(t, err)
		defer resp.Body.Close()

		var list jobList
		decodeJSON(t, resp, &list)
		require.Len(t, list.Jobs, 2)
		statuses := map[string]types.JobStatus{}
		for _, j := range list.Jobs {
			statuses[j.ID] = j.Status
		}
		assert.Equal(t, map[string]types.JobStatus{id: types.JobDone, failedID: types.JobFailed}, statuses)
	})

	t.Run("detail", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/jobs/" + id)
		require.NoError(t, err)
		defer resp.Body.Close()

		var detail jobDetail
		decodeJSON(t, resp, &detail)
		assert.Equal(t, "mapa.docx", detail.Job.Filename)
		assert.Equal(t, 2, detail.Job.Tables)
		assert.Len(t, detail.Job.SHA256, 64)
		assert.Equal(t, archive.Key(id), detail.Job.ArchiveKey)
		assert.Equal(t, []jobs.TableSummary{{Index: 1, Rows: 2, Cols: 2}, {Index: 2, Rows: 1, Cols: 2}}, detail.Tables)
	})

	t.Run("archive", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/jobs/" + id + "/archive")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, zipData, readBody(t, resp))
	})

	t.Run("failed job has no archive", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/jobs/" + failedID + "/archive")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unknown job", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/jobs/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("bad limit", func(t *testing.T) {
		resp, err := http.Get(f.ts.URL + "/api/jobs?limit=-1")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

type failingJobs struct {
	JobStore
}

func (failingJobs) Record(context.Context, types.Job, []types.Table) error {
	return errors.New("database is locked")
}

func TestConvert_RemovesArchiveWhenJobNotRecorded(t *testing.T) {
	root := t.TempDir()
	s := New(types.ServerConfig{TempDir: t.TempDir()}, nil,
		WithLogger(zerolog.Nop()),
		WithJobStore(failingJobs{}),
		WithArchive(archive.NewFSStore(root)))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp := postFile(t, ts.URL+"/api/extract", FieldName, "mapa.docx", docxtest.Build(t, resultsBody))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := resp.Header.Get("X-Job-ID")
	require.NotEmpty(t, id)

	assert.NoFileExists(t, filepath.Join(root, filepath.FromSlash(archive.Key(id))))
}

// presigningStore hands out fake download URLs for an FSStore.
type presigningStore struct {
	*archive.FSStore
}

func (presigningStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://archive.example/" + key, nil
}

func TestGetArchive_Presigned(t *testing.T) {
	root := t.TempDir()
	store, err := jobs.NewStore(types.StoreConfig{Path: filepath.Join(t.TempDir(), "jobs.db")})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s := New(types.ServerConfig{TempDir: t.TempDir()}, nil,
		WithLogger(zerolog.Nop()),
		WithJobStore(store),
		WithArchive(presigningStore{archive.NewFSStore(root)}))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	resp := postFile(t, ts.URL+"/api/extract", FieldName, "mapa.docx", docxtest.Build(t, resultsBody))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id := resp.Header.Get("X-Job-ID")

	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	get := func() *http.Response {
		resp, err := client.Get(ts.URL + "/api/jobs/" + id + "/archive")
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	redirect := get()
	assert.Equal(t, http.StatusFound, redirect.StatusCode)
	assert.Equal(t, "https://archive.example/"+archive.Key(id), redirect.Header.Get("Location"))

	require.NoError(t, os.Remove(filepath.Join(root, filepath.FromSlash(archive.Key(id)))))
	missing := get()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestJobHistoryDisabled(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	for _, p := range []string{"/api/jobs", "/api/jobs/x", "/api/jobs/x/archive"} {
		resp, err := http.Get(f.ts.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, types.ServerConfig{}, false)
	resp, err := http.Get(f.ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var payload map[string]string
	decodeJSON(t, resp, &payload)
	assert.Equal(t, "ok", payload["status"])
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := New(types.ServerConfig{ShutdownTimeout: time.Second, MaxConnections: 4}, nil, WithLogger(zerolog.Nop()))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
