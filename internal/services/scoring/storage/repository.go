package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/courtside/internal/platform/encoding"
	"github.com/louisbranch/courtside/internal/services/scoring/domain/session"
)

// Repository loads and saves session state through a SnapshotStore.
type Repository struct {
	store SnapshotStore
	now   func() time.Time
}

// NewRepository wraps store with the snapshot codec.
func NewRepository(store SnapshotStore) *Repository {
	return &Repository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Load returns the stored session. It returns ErrNotFound when nothing was
// saved yet and a MALFORMED_SNAPSHOT domain error when the payload is unusable.
func (r *Repository) Load(ctx context.Context, sessionID string) (session.State, error) {
	if r == nil || r.store == nil {
		return session.State{}, fmt.Errorf("storage is not configured")
	}
	rec, err := r.store.GetSnapshot(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return session.State{}, ErrNotFound
		}
		return session.State{}, fmt.Errorf("get snapshot: %w", err)
	}
	return DecodeSnapshot(rec.Payload)
}

// Save persists the session and returns the content hash of what was written.
func (r *Repository) Save(ctx context.Context, sessionID string, s session.State) (string, error) {
	if r == nil || r.store == nil {
		return "", fmt.Errorf("storage is not configured")
	}
	payload, err := EncodeSnapshot(s)
	if err != nil {
		return "", err
	}
	hash := encoding.HashBytes(payload)
	err = r.store.PutSnapshot(ctx, SnapshotRecord{
		SessionID:   sessionID,
		Payload:     payload,
		ContentHash: hash,
		UpdatedAt:   r.now(),
	})
	if err != nil {
		return "", fmt.Errorf("put snapshot: %w", err)
	}
	return hash, nil
}

// Close releases the underlying store.
func (r *Repository) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}
