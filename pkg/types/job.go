// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus tracks the outcome of a conversion request.
type JobStatus string

const (
	JobDone   JobStatus = "done"
	JobFailed JobStatus = "failed"
)

// Job records one document conversion handled by the server.
type Job struct {
	ID       string `json:"id" yaml:"id"`
	Filename string `json:"filename" yaml:"filename"`

	// SHA256 is the hex digest of the uploaded document.
	SHA256 string `json:"sha256" yaml:"sha256"`
	Size   int64  `json:"size" yaml:"size"`

	// Tables is the number of tables with data found in the document.
	Tables int       `json:"tables" yaml:"tables"`
	Status JobStatus `json:"status" yaml:"status"`
	Error  string    `json:"error,omitempty" yaml:"error,omitempty"`

	// ArchiveKey locates the retained ZIP in the archive store, if any.
	ArchiveKey string    `json:"archive_key,omitempty" yaml:"archive_key,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}
