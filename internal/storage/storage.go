// Package storage implements the core.Storage collaborator for S9
// RenderAndStore: writing the final HTML document, structured article JSON,
// and sources JSON under a per-job directory tree (generated images are
// recorded by URL, not written), plus an optional local SQLite run index.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalStore persists artifacts under {root}/{path}, where S9's paths
// begin with the job ID.
type LocalStore struct {
	root string
}

// NewLocalStore constructs a LocalStore rooted at root (spec default:
// "output", per config.StorageConfig).
func NewLocalStore(root string) *LocalStore {
	if root == "" {
		root = "output"
	}
	return &LocalStore{root: root}
}

// Put implements core.Storage. path is relative to the store root (e.g.
// "{job_id}/index.html"); the directory is created as needed.
func (s *LocalStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	fullPath := filepath.Join(s.root, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("create storage directory: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}

	return "file://" + fullPath, nil
}

// ArtifactPath builds the conventional per-job relative path for one of
// S9's named artifacts (index.html, article.json, sources.json, or an
// images/{role}.webp slot).
func ArtifactPath(jobID, name string) string {
	return filepath.Join(jobID, name)
}
