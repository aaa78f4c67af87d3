// Package postgres provides a Postgres-backed snapshot store for deployments
// that share one database across scorer instances.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/louisbranch/courtside/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/courtside/internal/services/scoring/storage"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/postgres/migrations"
)

// Pool limits applied to every connection.
const (
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
)

// Store persists session snapshots in Postgres.
type Store struct {
	sqlDB *sql.DB
}

// Open connects with dsn, verifies the connection and applies migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}
	if err := sqlmigrate.Apply(ctx, sqlDB, sqlmigrate.Postgres, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetSnapshot returns the latest snapshot for a session.
func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (storage.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SnapshotRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SnapshotRecord{}, fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSessionID(sessionID); err != nil {
		return storage.SnapshotRecord{}, err
	}

	rec := storage.SnapshotRecord{SessionID: sessionID}
	var payload string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload, content_hash, updated_at FROM session_snapshots WHERE session_id = $1`,
		sessionID,
	).Scan(&payload, &rec.ContentHash, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SnapshotRecord{}, storage.ErrNotFound
		}
		return storage.SnapshotRecord{}, fmt.Errorf("get session snapshot: %w", err)
	}
	rec.Payload = []byte(payload)
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// PutSnapshot inserts or replaces the snapshot for a session.
func (s *Store) PutSnapshot(ctx context.Context, record storage.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateRecord(record); err != nil {
		return err
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO session_snapshots (session_id, payload, content_hash, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (session_id) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   content_hash = EXCLUDED.content_hash,
		   updated_at = EXCLUDED.updated_at`,
		record.SessionID,
		string(record.Payload),
		record.ContentHash,
		updatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put session snapshot: %w", err)
	}
	return nil
}

var _ storage.SnapshotStore = (*Store)(nil)
