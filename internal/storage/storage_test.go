package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStore_Put(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	uri, err := store.Put(context.Background(), ArtifactPath("job-123", "index.html"), []byte("<html></html>"), "text/html")
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if uri == "" {
		t.Fatal("expected non-empty artifact URI")
	}

	data, err := os.ReadFile(filepath.Join(dir, "job-123", "index.html"))
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Errorf("unexpected file contents: %q", data)
	}
}

func TestLocalStore_Put_CancelledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Put(ctx, "job/index.html", []byte("x"), "text/html"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestRunIndex_RecordAndQuery(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	idx, err := OpenRunIndex(dbPath)
	if err != nil {
		t.Fatalf("OpenRunIndex returned error: %v", err)
	}
	defer func() { _ = idx.Close() }()

	ctx := context.Background()
	if err := idx.RecordRun(ctx, "job-1", "widgets", "file://a", "file://b", "file://c"); err != nil {
		t.Fatalf("RecordRun returned error: %v", err)
	}

	runs, err := idx.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns returned error: %v", err)
	}
	if len(runs) != 1 || runs[0].JobID != "job-1" {
		t.Errorf("expected 1 run with job-1, got %v", runs)
	}
}
