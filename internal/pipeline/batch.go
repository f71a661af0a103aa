// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/cne-ai/internal/operator"
	"github.com/pdiddy/cne-ai/pkg/types"
)

const defaultConcurrency = 4

// DocumentStatus is the outcome of exporting one document in a batch.
type DocumentStatus string

const (
	StatusExported DocumentStatus = "exported"
	StatusSkipped  DocumentStatus = "skipped"
	StatusFailed   DocumentStatus = "failed"
)

// BatchResult holds the outcome of a batch export run.
type BatchResult struct {
	Exported int
	Skipped  int
	Failed   int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Exported + r.Skipped + r.Failed
}

// HasFailures reports whether any document failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// syncWriter serialises status lines written by concurrent workers.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// TargetNames returns the output name of each path in a batch: the file
// stem, with a numeric suffix ("report", "report_2") when an earlier path
// already took the stem. Names are compared case-insensitively.
func TargetNames(paths []string) []string {
	used := make(map[string]bool, len(paths))
	names := make([]string, len(paths))
	for i, p := range paths {
		stem := Stem(p)
		name := stem
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", stem, n)
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// batchTarget returns where a batch writes the output named name.
func batchTarget(name string, cfg types.ExtractionConfig) string {
	target := filepath.Join(cfg.OutputDir, name)
	if cfg.Zip {
		return target + ".zip"
	}
	return target
}

// ExportPath exports a single document as part of a batch. Output goes to
// cfg.OutputDir/<name>/ or cfg.OutputDir/<name>.zip. Existing output is
// skipped, as are documents without tables.
func ExportPath(ctx context.Context, path, name string, cfg types.ExtractionConfig, ops []operator.Operator, w io.Writer) DocumentStatus {
	target := batchTarget(name, cfg)

	if _, err := os.Stat(target); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", name)
		return StatusSkipped
	}

	docCfg := cfg
	docCfg.OutputDir = target
	_, err := ExportDocument(ctx, path, docCfg, ops, io.Discard)
	switch {
	case errors.Is(err, ErrNoTables):
		fmt.Fprintf(w, "skipped: %s (no tables with data)\n", name)
		return StatusSkipped
	case err != nil:
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return StatusFailed
	}

	fmt.Fprintf(w, "exported: %s\n", name)
	return StatusExported
}

// ExportBatch exports many documents concurrently, printing per-file status
// to w and returning a summary. At most cfg.Concurrency documents are
// processed at once. Documents sharing a file stem get distinct targets
// (see TargetNames).
func ExportBatch(ctx context.Context, paths []string, cfg types.ExtractionConfig, ops []operator.Operator, w io.Writer) BatchResult {
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	sw := &syncWriter{w: w}
	statuses := make([]DocumentStatus, len(paths))
	names := TargetNames(paths)

	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				fmt.Fprintf(sw, "failed:  %s (%v)\n", names[i], err)
				statuses[i] = StatusFailed
				return nil
			}
			statuses[i] = ExportPath(ctx, p, names[i], cfg, ops, sw)
			return nil
		})
	}
	g.Wait()

	var result BatchResult
	for _, s := range statuses {
		switch s {
		case StatusExported:
			result.Exported++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d exported, %d skipped, %d failed (total: %d)\n",
		result.Exported, result.Skipped, result.Failed, result.Total())
	return result
}
