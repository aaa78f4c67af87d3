// Package filestore keeps one JSON snapshot file per session in a directory.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/courtside/internal/platform/encoding"
	"github.com/louisbranch/courtside/internal/services/scoring/storage"
)

const fileSuffix = ".json"

// Store persists snapshots as files named <session id>.json.
type Store struct {
	dir string
}

// Open ensures dir exists and returns a store rooted there.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	clean := filepath.Clean(dir)
	if err := os.MkdirAll(clean, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: clean}, nil
}

// Close is a no-op; files are closed after every operation.
func (s *Store) Close() error {
	return nil
}

// GetSnapshot reads the session file.
func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (storage.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SnapshotRecord{}, err
	}
	if s == nil || s.dir == "" {
		return storage.SnapshotRecord{}, fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSessionID(sessionID); err != nil {
		return storage.SnapshotRecord{}, err
	}

	path := s.path(sessionID)
	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return storage.SnapshotRecord{}, storage.ErrNotFound
		}
		return storage.SnapshotRecord{}, fmt.Errorf("read snapshot: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return storage.SnapshotRecord{}, fmt.Errorf("stat snapshot: %w", err)
	}
	return storage.SnapshotRecord{
		SessionID:   sessionID,
		Payload:     payload,
		ContentHash: encoding.HashBytes(payload),
		UpdatedAt:   info.ModTime().UTC(),
	}, nil
}

// PutSnapshot writes the payload to a temp file and renames it into place so
// readers never observe a partial snapshot.
func (s *Store) PutSnapshot(ctx context.Context, record storage.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.dir == "" {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateRecord(record); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, record.SessionID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(record.Payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path(record.SessionID)); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	if !record.UpdatedAt.IsZero() {
		_ = os.Chtimes(s.path(record.SessionID), record.UpdatedAt, record.UpdatedAt)
	}
	return nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+fileSuffix)
}

var _ storage.SnapshotStore = (*Store)(nil)
