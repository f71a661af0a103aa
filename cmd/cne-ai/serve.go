// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pdiddy/cne-ai/internal/archive"
	"github.com/pdiddy/cne-ai/internal/jobs"
	"github.com/pdiddy/cne-ai/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and conversion API over HTTP",
	Long: `Serve starts an HTTP server with an upload page at / that returns the
operator CSVs as operadores_csv.zip, and a JSON API:

  POST /api/extract             convert an upload (multipart field "document")
  GET  /api/jobs                list recent conversions
  GET  /api/jobs/{id}           one conversion and its tables
  GET  /api/jobs/{id}/archive   download a retained archive
  GET  /healthz                 liveness

Job history is kept in SQLite at store.path (empty disables it). Archives
are retained when archive.backend is fs or s3. The server stops gracefully
on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"server.addr":             "addr",
		"server.max_upload_bytes": "max-upload",
		"server.max_concurrent":   "max-concurrent",
	}); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ops, err := operators(cfg.Operators)
	if err != nil {
		return err
	}

	var opts []server.Option
	if cfg.Store.Path != "" {
		store, err := jobs.NewStore(cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, server.WithJobStore(store))
		log.Info().Str("path", cfg.Store.Path).Msg("job history enabled")
	}

	archives, err := archive.New(cfg.Archive, loadedSecrets)
	if err != nil {
		return err
	}
	if archives != nil {
		opts = append(opts, server.WithArchive(archives))
		log.Info().Str("backend", string(cfg.Archive.Backend)).Msg("archive retention enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg.Server, ops, opts...).ListenAndServe(ctx)
}

func init() {
	serveCmd.Flags().String("addr", ":5000", "listen address")
	serveCmd.Flags().Int64("max-upload", 32<<20, "maximum upload size in bytes")
	serveCmd.Flags().Int("max-concurrent", 4, "conversions in flight before requests get 429")

	rootCmd.AddCommand(serveCmd)
}
