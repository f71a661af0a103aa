// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/pdiddy/cne-ai/internal/archive"
	"github.com/pdiddy/cne-ai/internal/jobs"
	"github.com/pdiddy/cne-ai/pkg/types"
)

type pageData struct {
	Message     string
	MaxUploadMB int64
}

func (s *Server) renderPage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := pageData{Message: msg, MaxUploadMB: s.cfg.MaxUploadBytes >> 20}
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Error().Err(err).Msg("rendering page")
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, "")
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	conv, err := s.convert(w, r)
	if err != nil {
		status, msg := s.logFailure(conv, err)
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", retryAfterSeconds)
		}
		s.renderPage(w, status, msg)
		return
	}
	writeZip(w, conv)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	conv, err := s.convert(w, r)
	if err != nil {
		status, msg := s.logFailure(conv, err)
		if status == http.StatusTooManyRequests {
			w.Header().Set("Retry-After", retryAfterSeconds)
		}
		if conv.job.ID != "" {
			w.Header().Set("X-Job-ID", conv.job.ID)
		}
		writeError(w, status, msg)
		return
	}
	writeZip(w, conv)
}

func (s *Server) logFailure(conv conversion, err error) (int, string) {
	status, msg := failure(err)
	ev := s.logger.Warn()
	if status == http.StatusInternalServerError {
		ev = s.logger.Error()
	}
	ev.Err(err).Int("status", status).Str("job", conv.job.ID).Msg("conversion failed")
	return status, msg
}

func writeZip(w http.ResponseWriter, conv conversion) {
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ArchiveName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(conv.zip)))
	w.Header().Set("X-Job-ID", conv.job.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(conv.zip)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type jobList struct {
	Jobs []types.Job `json:"jobs"`
}

type jobDetail struct {
	Job    types.Job           `json:"job"`
	Tables []jobs.TableSummary `json:"tables"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeError(w, http.StatusNotFound, "job history is disabled")
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := s.jobs.List(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("listing jobs")
		writeError(w, http.StatusInternalServerError, "could not list jobs")
		return
	}
	if list == nil {
		list = []types.Job{}
	}
	writeJSON(w, http.StatusOK, jobList{Jobs: list})
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) (types.Job, bool) {
	if s.jobs == nil {
		writeError(w, http.StatusNotFound, "job history is disabled")
		return types.Job{}, false
	}
	job, err := s.jobs.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "job not found")
		return types.Job{}, false
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("reading job")
		writeError(w, http.StatusInternalServerError, "could not read job")
		return types.Job{}, false
	}
	return job, true
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	tables, err := s.jobs.Tables(r.Context(), job.ID)
	if err != nil {
		s.logger.Error().Err(err).Msg("reading job tables")
		writeError(w, http.StatusInternalServerError, "could not read job")
		return
	}
	if tables == nil {
		tables = []jobs.TableSummary{}
	}
	writeJSON(w, http.StatusOK, jobDetail{Job: job, Tables: tables})
}

func (s *Server) handleGetArchive(w http.ResponseWriter, r *http.Request) {
	job, ok := s.lookupJob(w, r)
	if !ok {
		return
	}
	if s.archive == nil || job.ArchiveKey == "" {
		writeError(w, http.StatusNotFound, "no archive retained for this job")
		return
	}

	// Presigned URLs are issued without touching the object, so check first.
	exists, err := s.archive.Exists(r.Context(), job.ArchiveKey)
	if err != nil {
		s.logger.Error().Err(err).Str("job", job.ID).Msg("checking archive")
		writeError(w, http.StatusInternalServerError, "could not read archive")
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "archive no longer available")
		return
	}

	if p, ok := s.archive.(archive.Presigner); ok {
		url, err := p.PresignGet(r.Context(), job.ArchiveKey, presignExpiry)
		if err == nil {
			http.Redirect(w, r, url, http.StatusFound)
			return
		}
		s.logger.Warn().Err(err).Str("job", job.ID).Msg("presign failed, streaming archive")
	}

	rc, err := s.archive.Get(r.Context(), job.ArchiveKey)
	if archive.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "archive no longer available")
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("job", job.ID).Msg("reading archive")
		writeError(w, http.StatusInternalServerError, "could not read archive")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+ArchiveName+`"`)
	w.Header().Set("X-Job-ID", job.ID)
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.Warn().Err(err).Str("job", job.ID).Msg("streaming archive")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
