// Package storage stages uploaded bytes on the local filesystem for the
// lifetime of one request. It exists for local (non-serverless) deployments;
// staged files are never a persistence guarantee and must be removed on both
// success and failure paths.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Staging writes request-scoped files under a base directory.
type Staging struct {
	basePath string
}

// NewStaging initializes a staging area rooted at basePath.
func NewStaging(basePath string) (*Staging, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &Staging{basePath: basePath}, nil
}

// BasePath returns the configured root directory.
func (s *Staging) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Stage writes each blob to a uniquely named file and returns a cleanup
// function that removes everything written, including partial results when
// staging itself fails. Callers must invoke cleanup on every path.
func (s *Staging) Stage(blobs [][]byte) (cleanup func(), err error) {
	if s == nil {
		return func() {}, nil
	}
	var paths []string
	cleanup = func() {
		for _, p := range paths {
			_ = os.Remove(p)
		}
	}
	for i, data := range blobs {
		path := filepath.Join(s.basePath, fmt.Sprintf("%s-%02d", uuid.NewString(), i))
		if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
			cleanup()
			return func() {}, fmt.Errorf("storage: stage upload: %w", writeErr)
		}
		paths = append(paths, path)
	}
	return cleanup, nil
}
