package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Hiveagents-ones/HiveCore-sub002/internal/types"
)

// PostgresStore keeps one row per (project, path). Older records never
// overwrite newer ones.
type PostgresStore struct {
	db         *sql.DB
	schemaOnce sync.Once
	schemaErr  error
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres opens dsn with the pgx driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS registry_records (
    project_id TEXT NOT NULL,
    path TEXT NOT NULL,
    seq BIGINT NOT NULL,
    content_hash TEXT NOT NULL,
    record JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    PRIMARY KEY (project_id, path)
);
CREATE INDEX IF NOT EXISTS idx_registry_records_project_seq ON registry_records(project_id, seq);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Append(ctx context.Context, projectID string, records []types.FileRecord) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return err
	}
	if err := checkRecords(records); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", rec.Path, err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO registry_records (project_id, path, seq, content_hash, record, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (project_id, path)
DO UPDATE SET seq=EXCLUDED.seq, content_hash=EXCLUDED.content_hash, record=EXCLUDED.record,
    created_at=EXCLUDED.created_at, updated_at=EXCLUDED.updated_at
WHERE registry_records.created_at <= EXCLUDED.created_at
`, id, rec.Path, int64(rec.Seq), rec.ContentHash, raw, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert record %s: %w", rec.Path, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, projectID string) ([]types.FileRecord, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	id, err := normalizeProjectID(projectID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT record FROM registry_records WHERE project_id=$1 ORDER BY seq, path`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.FileRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec types.FileRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
