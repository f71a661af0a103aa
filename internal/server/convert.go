// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/cne-ai/internal/archive"
	"github.com/pdiddy/cne-ai/internal/docx"
	"github.com/pdiddy/cne-ai/internal/export"
	"github.com/pdiddy/cne-ai/internal/pipeline"
	"github.com/pdiddy/cne-ai/pkg/types"
)

var (
	errMissingFile = errors.New("no document in request")
	errNotDocx     = errors.New("uploaded file is not a .docx")
	errBusy        = errors.New("too many conversions in flight")
)

// Messages shown to users, keyed by failure.
const (
	msgMissingFile = "Please select a DOCX file before continuing."
	msgNotDocx     = "Only .docx files are accepted."
	msgInvalidDocx = "The uploaded file is not a valid DOCX document."
	msgNoTables    = "The document does not contain tables with data."
	msgTooLarge    = "The file exceeds the maximum upload size."
	msgBusy        = "The server is busy. Please try again shortly."
	msgInternal    = "An unexpected error occurred while processing the document."
)

// retryAfterSeconds is sent with 429 responses.
const retryAfterSeconds = "5"

type upload struct {
	path     string
	filename string
	sha256   string
	size     int64
}

type conversion struct {
	job types.Job
	zip []byte
}

// convert runs one upload through the pipeline and returns the ZIP. The
// job is recorded whether or not conversion succeeds once a file has been
// received.
func (s *Server) convert(w http.ResponseWriter, r *http.Request) (conversion, error) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	default:
		return conversion{}, errBusy
	}

	ctx := r.Context()
	up, err := s.receive(w, r)
	if err != nil {
		return conversion{}, err
	}
	defer os.Remove(up.path)

	job := types.Job{
		ID:        uuid.NewString(),
		Filename:  up.filename,
		SHA256:    up.sha256,
		Size:      up.size,
		CreatedAt: s.now(),
	}

	res, err := pipeline.ConvertDocument(ctx, up.path, s.ops)
	if err != nil {
		job.Status = types.JobFailed
		job.Error = err.Error()
		s.record(ctx, job, nil)
		return conversion{job: job}, err
	}

	var buf bytes.Buffer
	if err := export.WriteZip(&buf, res.Outputs); err != nil {
		job.Status = types.JobFailed
		job.Error = err.Error()
		s.record(ctx, job, nil)
		return conversion{job: job}, err
	}

	job.Status = types.JobDone
	job.Tables = len(res.Tables)
	if s.archive != nil {
		key := archive.Key(job.ID)
		err := s.archive.Put(ctx, key, bytes.NewReader(buf.Bytes()),
			archive.WithContentType("application/zip"),
			archive.WithMetadata(map[string]string{"filename": up.filename, "sha256": up.sha256}))
		if err != nil {
			s.logger.Warn().Err(err).Str("job", job.ID).Msg("archive not retained")
		} else {
			job.ArchiveKey = key
		}
	}
	if err := s.record(ctx, job, res.Tables); err != nil && job.ArchiveKey != "" {
		// Without a job row the archive can never be downloaded.
		if err := s.archive.Delete(context.WithoutCancel(ctx), job.ArchiveKey); err != nil {
			s.logger.Warn().Err(err).Str("job", job.ID).Msg("orphaned archive not removed")
		}
		job.ArchiveKey = ""
	}

	s.logger.Info().
		Str("job", job.ID).
		Str("filename", up.filename).
		Int("tables", job.Tables).
		Int("csv_files", res.CSVCount()).
		Msg("document converted")
	return conversion{job: job, zip: buf.Bytes()}, nil
}

// record stores job in the history, when one is kept.
func (s *Server) record(ctx context.Context, job types.Job, tables []types.Table) error {
	if s.jobs == nil {
		return nil
	}
	err := s.jobs.Record(context.WithoutCancel(ctx), job, tables)
	if err != nil {
		s.logger.Warn().Err(err).Str("job", job.ID).Msg("job not recorded")
	}
	return err
}

// receive streams the document part of a multipart request to a temporary
// file, hashing it on the way. The body is capped at MaxUploadBytes.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		return upload{}, fmt.Errorf("%w: %v", errMissingFile, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return upload{}, errMissingFile
		}
		if err != nil {
			return upload{}, fmt.Errorf("reading upload: %w", err)
		}
		if part.FormName() != FieldName {
			part.Close()
			continue
		}

		name := filepath.Base(part.FileName())
		if part.FileName() == "" || name == "." {
			part.Close()
			return upload{}, errMissingFile
		}
		if !strings.EqualFold(filepath.Ext(name), ".docx") {
			part.Close()
			return upload{}, fmt.Errorf("%s: %w", name, errNotDocx)
		}

		up, err := s.saveTemp(part)
		part.Close()
		if err != nil {
			return upload{}, err
		}
		if up.size == 0 {
			os.Remove(up.path)
			return upload{}, errMissingFile
		}
		up.filename = name
		return up, nil
	}
}

func (s *Server) saveTemp(src io.Reader) (upload, error) {
	tmp, err := os.CreateTemp(s.cfg.TempDir, "upload-*.docx")
	if err != nil {
		return upload{}, fmt.Errorf("creating temp file: %w", err)
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, h), src)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return upload{}, fmt.Errorf("saving upload: %w", err)
	}
	return upload{path: tmp.Name(), sha256: hex.EncodeToString(h.Sum(nil)), size: n}, nil
}

// failure maps a conversion error to a status code and user message.
func failure(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, errBusy):
		return http.StatusTooManyRequests, msgBusy
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, msgTooLarge
	case errors.Is(err, errMissingFile):
		return http.StatusBadRequest, msgMissingFile
	case errors.Is(err, errNotDocx):
		return http.StatusUnsupportedMediaType, msgNotDocx
	case errors.Is(err, docx.ErrInvalidDocument):
		return http.StatusUnprocessableEntity, msgInvalidDocx
	case errors.Is(err, pipeline.ErrNoTables):
		return http.StatusUnprocessableEntity, msgNoTables
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
