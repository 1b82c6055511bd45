// Package storage persists run history so past enhancements can be
// inspected without re-running the pipeline.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"abstractor/internal/evaluate"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

// Run is one complete pipeline execution.
type Run struct {
	ID         string
	SourcePath string
	CreatedAt  time.Time
	Threshold  float64
	MinExtent  int
	Diagram    string
	Candidates []StoredCandidate
	Records    []evaluate.Record
}

// StoredCandidate is the persisted form of a named abstraction.
type StoredCandidate struct {
	Name       string   `json:"name"`
	Extent     []string `json:"extent"`
	Intent     []string `json:"intent"`
	Relevance  float64  `json:"relevance"`
	Confidence float64  `json:"confidence"`
	Source     string   `json:"source"`
}

// RunSummary is the listing view of a run.
type RunSummary struct {
	ID            string
	SourcePath    string
	CreatedAt     time.Time
	AbstractCount int
}

type Store struct {
	db *sql.DB
}

// NewStore creates or opens the run database.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "init run schema")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_path TEXT,
			created_at TIMESTAMP,
			threshold REAL,
			min_extent INTEGER,
			diagram TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS candidates (
			run_id TEXT,
			position INTEGER,
			name TEXT,
			extent JSON,
			intent JSON,
			relevance REAL,
			confidence REAL,
			source TEXT,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS evaluations (
			run_id TEXT,
			position INTEGER,
			concept_id TEXT,
			name TEXT,
			name_score REAL,
			name_reason TEXT,
			abstraction_score REAL,
			abstraction_reason TEXT,
			PRIMARY KEY (run_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun persists a run and its candidates atomically, replacing any
// previous run with the same id.
func (s *Store) SaveRun(ctx context.Context, run *Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, source_path, created_at, threshold, min_extent, diagram)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path,
			created_at=excluded.created_at,
			threshold=excluded.threshold,
			min_extent=excluded.min_extent,
			diagram=excluded.diagram
	`, run.ID, run.SourcePath, run.CreatedAt, run.Threshold, run.MinExtent, run.Diagram)
	if err != nil {
		return errors.Wrap(err, "save run")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE run_id = ?`, run.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM evaluations WHERE run_id = ?`, run.ID); err != nil {
		return err
	}

	candStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (run_id, position, name, extent, intent, relevance, confidence, source)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer candStmt.Close()

	for i, cand := range run.Candidates {
		extent, _ := json.Marshal(cand.Extent)
		intent, _ := json.Marshal(cand.Intent)
		if _, err := candStmt.ExecContext(ctx, run.ID, i, cand.Name, extent, intent, cand.Relevance, cand.Confidence, cand.Source); err != nil {
			return errors.Wrapf(err, "save candidate %s", cand.Name)
		}
	}

	evalStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO evaluations (run_id, position, concept_id, name, name_score, name_reason, abstraction_score, abstraction_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer evalStmt.Close()

	for i, rec := range run.Records {
		if _, err := evalStmt.ExecContext(ctx, run.ID, i, rec.ConceptID, rec.Name, rec.NameScore, rec.NameScoreReason, rec.AbstractionScore, rec.AbstractionReason); err != nil {
			return errors.Wrapf(err, "save evaluation %s", rec.ConceptID)
		}
	}

	return tx.Commit()
}

// GetRun loads one run with its candidates and evaluation scores.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT source_path, created_at, threshold, min_extent, diagram
		FROM runs WHERE id = ?
	`, id).Scan(&run.SourcePath, &run.CreatedAt, &run.Threshold, &run.MinExtent, &run.Diagram)
	if err == sql.ErrNoRows {
		return nil, errors.Newf("run %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, extent, intent, relevance, confidence, source
		FROM candidates WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var cand StoredCandidate
		var extent, intent []byte
		if err := rows.Scan(&cand.Name, &extent, &intent, &cand.Relevance, &cand.Confidence, &cand.Source); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(extent, &cand.Extent); err != nil {
			return nil, errors.Wrapf(err, "decode extent for %s", cand.Name)
		}
		if err := json.Unmarshal(intent, &cand.Intent); err != nil {
			return nil, errors.Wrapf(err, "decode intent for %s", cand.Name)
		}
		run.Candidates = append(run.Candidates, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	evalRows, err := s.db.QueryContext(ctx, `
		SELECT concept_id, name, name_score, name_reason, abstraction_score, abstraction_reason
		FROM evaluations WHERE run_id = ? ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer evalRows.Close()

	for evalRows.Next() {
		var rec evaluate.Record
		if err := evalRows.Scan(&rec.ConceptID, &rec.Name, &rec.NameScore, &rec.NameScoreReason, &rec.AbstractionScore, &rec.AbstractionReason); err != nil {
			return nil, err
		}
		run.Records = append(run.Records, rec)
	}
	return run, evalRows.Err()
}

// ListRuns returns run summaries, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.source_path, r.created_at, COUNT(c.run_id)
		FROM runs r
		LEFT JOIN candidates c ON c.run_id = r.id
		GROUP BY r.id
		ORDER BY r.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var summary RunSummary
		if err := rows.Scan(&summary.ID, &summary.SourcePath, &summary.CreatedAt, &summary.AbstractCount); err != nil {
			return nil, err
		}
		out = append(out, summary)
	}
	return out, rows.Err()
}
