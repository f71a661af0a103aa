// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive retains produced ZIP archives in a directory or an S3
// bucket so they can be downloaded again later.
package archive

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/cne-ai/internal/secrets"
	"github.com/pdiddy/cne-ai/pkg/types"
)

// Store is an object store for archives.
type Store interface {
	Put(ctx context.Context, key string, data io.Reader, options ...PutOption) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// PutOption customises Put.
type PutOption func(*PutOptions)

// PutOptions holds optional object attributes. Backends that cannot store
// an attribute ignore it.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// WithContentType sets the stored content type.
func WithContentType(contentType string) PutOption {
	return func(o *PutOptions) {
		o.ContentType = contentType
	}
}

// WithMetadata sets user metadata on the stored object.
func WithMetadata(metadata map[string]string) PutOption {
	return func(o *PutOptions) {
		o.Metadata = metadata
	}
}

func applyOptions(options []PutOption) PutOptions {
	var opts PutOptions
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// Key returns the object key under which a job's archive is kept.
func Key(jobID string) string {
	return "archives/" + jobID + ".zip"
}

// Secret file names read for S3 credentials.
const (
	SecretAccessKeyID     = "aws-access-key-id"
	SecretSecretAccessKey = "aws-secret-access-key"
	SecretSessionToken    = "aws-session-token"
)

// New builds the store selected by cfg. It returns nil and no error when
// retention is disabled. Credentials for S3 come from secrets, falling
// back to the standard AWS environment variables.
func New(cfg types.ArchiveConfig, secretValues map[string]string) (Store, error) {
	switch cfg.Backend {
	case types.ArchiveNone:
		return nil, nil
	case types.ArchiveFS:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("archive backend fs requires a directory")
		}
		return NewFSStore(cfg.Dir), nil
	case types.ArchiveS3:
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("archive backend s3 requires a bucket")
		}
		creds := Credentials{
			AccessKeyID:     secrets.Lookup(secretValues, SecretAccessKeyID, "AWS_ACCESS_KEY_ID"),
			SecretAccessKey: secrets.Lookup(secretValues, SecretSecretAccessKey, "AWS_SECRET_ACCESS_KEY"),
			SessionToken:    secrets.Lookup(secretValues, SecretSessionToken, "AWS_SESSION_TOKEN"),
		}
		return NewS3StoreFromConfig(cfg, creds), nil
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Backend)
	}
}
