// Package storage defines persistence contracts for scoring session snapshots.
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound indicates no snapshot has been saved for a session yet.
var ErrNotFound = errors.New("record not found")

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// SnapshotRecord is one persisted session snapshot.
type SnapshotRecord struct {
	SessionID   string
	Payload     []byte
	ContentHash string
	UpdatedAt   time.Time
}

// SnapshotStore persists the latest snapshot of each session. Backends store
// payload bytes verbatim.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, sessionID string) (SnapshotRecord, error)
	PutSnapshot(ctx context.Context, record SnapshotRecord) error
	Close() error
}

// ValidateSessionID rejects ids that are unsafe as file names, keys or
// object paths.
func ValidateSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if !sessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("session id %q must be 1-64 letters, digits, '-' or '_'", sessionID)
	}
	return nil
}

// ValidateRecord checks the fields every backend requires.
func ValidateRecord(record SnapshotRecord) error {
	if err := ValidateSessionID(record.SessionID); err != nil {
		return err
	}
	if len(record.Payload) == 0 {
		return fmt.Errorf("snapshot payload is required")
	}
	return nil
}
