// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps objects as files under a root directory. Keys use forward
// slashes and may not escape the root.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at dir. The directory is created on
// first Put.
func NewFSStore(dir string) *FSStore {
	return &FSStore{root: dir}
}

func (s *FSStore) path(op, key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", NewStorageError(op, key, nil, ErrCodeInvalidArgument, "invalid key")
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes data to the key's file through a temporary file and a rename.
func (s *FSStore) Put(ctx context.Context, key string, data io.Reader, options ...PutOption) error {
	p, err := s.path("Put", key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return NewStorageError("Put", key, err, ErrCodeInternal, "cancelled")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return NewStorageError("Put", key, err, ErrCodeInternal, "failed to create directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".put-*")
	if err != nil {
		return NewStorageError("Put", key, err, ErrCodeInternal, "failed to create file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		return NewStorageError("Put", key, err, ErrCodeInternal, "failed to write object")
	}
	if err := tmp.Close(); err != nil {
		return NewStorageError("Put", key, err, ErrCodeInternal, "failed to write object")
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return NewStorageError("Put", key, err, ErrCodeInternal, "failed to store object")
	}
	return nil
}

// Get opens the key's file.
func (s *FSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.path("Get", key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, NewStorageError("Get", key, err, ErrCodeNotFound, "object not found")
	}
	if err != nil {
		return nil, NewStorageError("Get", key, err, ErrCodeInternal, "failed to get object")
	}
	return f, nil
}

// Exists reports whether the key's file exists.
func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	p, err := s.path("Exists", key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, NewStorageError("Exists", key, err, ErrCodeInternal, "failed to check object existence")
	}
	return true, nil
}

// Delete removes the key's file. Deleting a missing key is not an error.
func (s *FSStore) Delete(ctx context.Context, key string) error {
	p, err := s.path("Delete", key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewStorageError("Delete", key, err, ErrCodeInternal, "failed to delete object")
	}
	return nil
}
