// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes document conversion over HTTP: an upload page
// that returns the operator CSVs as a ZIP, a JSON API for the same
// conversion, and read access to the job history and retained archives.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"

	"github.com/pdiddy/cne-ai/internal/archive"
	"github.com/pdiddy/cne-ai/internal/jobs"
	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

// FieldName is the multipart field that carries the document.
const FieldName = "document"

// ArchiveName is the download name of the returned ZIP.
const ArchiveName = "operadores_csv.zip"

const (
	defaultAddr            = ":5000"
	defaultMaxUploadBytes  = 32 << 20
	defaultMaxConcurrent   = 4
	defaultReadTimeout     = time.Minute
	defaultWriteTimeout    = 5 * time.Minute
	defaultShutdownTimeout = 10 * time.Second
	readHeaderTimeout      = 10 * time.Second
	presignExpiry          = 15 * time.Minute
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// JobStore records and reads conversion history. *jobs.Store satisfies it.
type JobStore interface {
	Record(ctx context.Context, job types.Job, tables []types.Table) error
	Get(ctx context.Context, id string) (types.Job, error)
	Tables(ctx context.Context, id string) ([]jobs.TableSummary, error)
	List(ctx context.Context, limit int) ([]types.Job, error)
}

// Server handles conversion requests.
type Server struct {
	cfg     types.ServerConfig
	ops     []operator.Operator
	jobs    JobStore
	archive archive.Store
	logger  zerolog.Logger
	sem     chan struct{}
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithJobStore enables job history.
func WithJobStore(js JobStore) Option {
	return func(s *Server) { s.jobs = js }
}

// WithArchive enables archive retention.
func WithArchive(a archive.Store) Option {
	return func(s *Server) { s.archive = a }
}

// WithLogger sets the request logger. The global zerolog logger is used
// otherwise.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a server that converts uploads with ops. Zero fields of cfg
// take their defaults.
func New(cfg types.ServerConfig, ops []operator.Operator, opts ...Option) *Server {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(ops) == 0 {
		ops = operator.Defaults()
	}

	s := &Server{
		cfg:    cfg,
		ops:    ops,
		logger: log.Logger,
		sem:    make(chan struct{}, cfg.MaxConcurrent),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleUpload)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("GET /api/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/jobs/{id}/archive", s.handleGetArchive)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.logRequests(mux)
}

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully, waiting up to the shutdown timeout for requests in flight.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
