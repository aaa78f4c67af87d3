// Package sqlite provides a SQLite-backed snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/courtside/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/courtside/internal/services/scoring/storage"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists session snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite snapshot store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlmigrate.Apply(context.Background(), sqlDB, sqlmigrate.SQLite, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
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

	var (
		payload   string
		hash      string
		updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT payload, content_hash, updated_at FROM session_snapshots WHERE session_id = ?`,
		sessionID,
	).Scan(&payload, &hash, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SnapshotRecord{}, storage.ErrNotFound
		}
		return storage.SnapshotRecord{}, fmt.Errorf("get session snapshot: %w", err)
	}
	return storage.SnapshotRecord{
		SessionID:   sessionID,
		Payload:     []byte(payload),
		ContentHash: hash,
		UpdatedAt:   fromMillis(updatedAt),
	}, nil
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
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   payload = excluded.payload,
		   content_hash = excluded.content_hash,
		   updated_at = excluded.updated_at`,
		record.SessionID,
		string(record.Payload),
		record.ContentHash,
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put session snapshot: %w", err)
	}
	return nil
}

var _ storage.SnapshotStore = (*Store)(nil)
