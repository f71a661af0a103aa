// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package client uploads DOCX files to a running extraction server and
// saves the CSV archive it returns.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/cne-ai/internal/httputil"
)

// FieldName is the multipart field that carries the document.
const FieldName = "document"

// ExtractPath is the server endpoint that returns JSON errors.
const ExtractPath = "/api/extract"

const defaultTimeout = 5 * time.Minute

// APIError is a non-200 response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Result describes a saved archive.
type Result struct {
	Path  string
	JobID string
	Size  int64
}

type options struct {
	httpClient *http.Client
	maxRetries int
}

// Option configures Upload.
type Option func(*options)

// WithHTTPClient sets the client used for the request.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = n }
}

// Upload posts the DOCX at docxPath to the server at baseURL and writes the
// returned ZIP to out, creating parent directories as needed.
func Upload(ctx context.Context, baseURL, docxPath, out string, opts ...Option) (Result, error) {
	o := options{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(&o)
	}

	body, contentType, err := multipartBody(docxPath)
	if err != nil {
		return Result{}, err
	}

	url := strings.TrimRight(baseURL, "/") + ExtractPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/zip")

	resp, err := httputil.DoWithRetry(ctx, o.httpClient, req, o.maxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("uploading %s: %w", docxPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, readAPIError(resp)
	}

	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Result{}, fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(out)
	if err != nil {
		return Result{}, fmt.Errorf("creating %s: %w", out, err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(out)
		return Result{}, fmt.Errorf("writing %s: %w", out, err)
	}

	return Result{Path: out, JobID: resp.Header.Get("X-Job-ID"), Size: n}, nil
}

func multipartBody(docxPath string) ([]byte, string, error) {
	f, err := os.Open(docxPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", docxPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(FieldName, filepath.Base(docxPath))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", docxPath, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
