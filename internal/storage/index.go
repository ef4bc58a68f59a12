package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// RunIndex is an optional local catalogue of completed runs, adapted from
// the teacher's Postgres connection-pool-and-migration pattern down to a
// single embedded SQLite file (the teacher's own go.mod already carries
// the sqlite driver; Postgres's connection string and multi-table digest
// schema have no home in a single-article pipeline with no server
// process to own a pool).
type RunIndex struct {
	db *sql.DB
}

// OpenRunIndex opens (creating if necessary) a SQLite index file at path
// and ensures its schema exists.
func OpenRunIndex(path string) (*RunIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open run index: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping run index: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			job_id TEXT PRIMARY KEY,
			keyword TEXT NOT NULL,
			index_html_uri TEXT NOT NULL,
			article_json_uri TEXT NOT NULL,
			sources_json_uri TEXT NOT NULL,
			completed_at TIMESTAMP NOT NULL
		)
	`); err != nil {
		return nil, fmt.Errorf("create runs table: %w", err)
	}

	return &RunIndex{db: db}, nil
}

// Close closes the underlying database handle.
func (r *RunIndex) Close() error {
	return r.db.Close()
}

// RecordRun inserts or replaces one completed run's artifact URIs.
func (r *RunIndex) RecordRun(ctx context.Context, jobID, keyword, indexHTMLURI, articleJSONURI, sourcesJSONURI string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (job_id, keyword, index_html_uri, article_json_uri, sources_json_uri, completed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			keyword = excluded.keyword,
			index_html_uri = excluded.index_html_uri,
			article_json_uri = excluded.article_json_uri,
			sources_json_uri = excluded.sources_json_uri,
			completed_at = excluded.completed_at
	`, jobID, keyword, indexHTMLURI, articleJSONURI, sourcesJSONURI, time.Now())
	if err != nil {
		return fmt.Errorf("record run %s: %w", jobID, err)
	}
	return nil
}

// RunRecord is one row read back from the index.
type RunRecord struct {
	JobID          string
	Keyword        string
	IndexHTMLURI   string
	ArticleJSONURI string
	SourcesJSONURI string
}

// RecentRuns returns up to limit most recently completed runs, newest first.
func (r *RunIndex) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT job_id, keyword, index_html_uri, article_json_uri, sources_json_uri
		FROM runs ORDER BY completed_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		if err := rows.Scan(&rec.JobID, &rec.Keyword, &rec.IndexHTMLURI, &rec.ArticleJSONURI, &rec.SourcesJSONURI); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
