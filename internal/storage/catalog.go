package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Catalog records harvest and training runs in a sqlite database.
type Catalog struct {
	db *sql.DB
}

// HarvestRun is one category written by a harvest run.
type HarvestRun struct {
	RunID        string
	Category     string
	CorpusPath   string
	Articles     int
	FeedsFetched int64
	FeedsSkipped int64
	FinishedAt   time.Time
}

// TrainingRun is one bundle written by a training run.
type TrainingRun struct {
	RunID       string
	BundlePath  string
	Categories  []string
	PerCategory int
	Samples     int
	Vocabulary  int
	Selected    int
	FinishedAt  time.Time
}

// NewRunID returns a lexically sortable run identifier.
func NewRunID() string {
	return ulid.MustNew(ulid.Now(), ulid.Monotonic(rand.Reader, 0)).String()
}

// OpenCatalog opens (and creates if needed) the catalog at path.
func OpenCatalog(ctx context.Context, path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	c := &Catalog{db: db}
	if err := c.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return c, nil
}

func (c *Catalog) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS harvest_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		category TEXT NOT NULL,
		corpus_path TEXT NOT NULL,
		articles INTEGER NOT NULL,
		feeds_fetched INTEGER NOT NULL,
		feeds_skipped INTEGER NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_harvest_runs_category ON harvest_runs(category);

	CREATE TABLE IF NOT EXISTS training_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT UNIQUE NOT NULL,
		bundle_path TEXT NOT NULL,
		categories TEXT NOT NULL,
		per_category INTEGER NOT NULL,
		samples INTEGER NOT NULL,
		vocabulary INTEGER NOT NULL,
		selected INTEGER NOT NULL,
		finished_at TEXT NOT NULL
	);
	`

	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// RecordHarvest stores one harvested category.
func (c *Catalog) RecordHarvest(ctx context.Context, run HarvestRun) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO harvest_runs (run_id, category, corpus_path, articles, feeds_fetched, feeds_skipped, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Category, run.CorpusPath, run.Articles, run.FeedsFetched, run.FeedsSkipped,
		run.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record harvest of %s: %w", run.Category, err)
	}
	return nil
}

// RecordTraining stores one training run.
func (c *Catalog) RecordTraining(ctx context.Context, run TrainingRun) error {
	cats, err := json.Marshal(run.Categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO training_runs (run_id, bundle_path, categories, per_category, samples, vocabulary, selected, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.BundlePath, string(cats), run.PerCategory, run.Samples, run.Vocabulary, run.Selected,
		run.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record training run: %w", err)
	}
	return nil
}

// LatestHarvest returns the most recent harvest row for category, or nil
// when the category was never harvested.
func (c *Catalog) LatestHarvest(ctx context.Context, category string) (*HarvestRun, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT run_id, category, corpus_path, articles, feeds_fetched, feeds_skipped, finished_at
		FROM harvest_runs WHERE category = ? ORDER BY id DESC LIMIT 1`, category)

	var run HarvestRun
	var finished string
	if err := row.Scan(&run.RunID, &run.Category, &run.CorpusPath, &run.Articles,
		&run.FeedsFetched, &run.FeedsSkipped, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
	return &run, nil
}

// RecentTrainings returns up to limit training runs, newest first.
func (c *Catalog) RecentTrainings(ctx context.Context, limit int) ([]TrainingRun, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT run_id, bundle_path, categories, per_category, samples, vocabulary, selected, finished_at
		FROM training_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []TrainingRun
	for rows.Next() {
		var run TrainingRun
		var cats, finished string
		if err := rows.Scan(&run.RunID, &run.BundlePath, &cats, &run.PerCategory, &run.Samples,
			&run.Vocabulary, &run.Selected, &finished); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cats), &run.Categories); err != nil {
			return nil, fmt.Errorf("corrupt categories for run %s: %w", run.RunID, err)
		}
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
