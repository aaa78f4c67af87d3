// Package redisstore keeps session snapshots in Redis hashes so several
// scorer instances can share one session.
package redisstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/courtside/internal/services/scoring/storage"
)

// DefaultKeyPrefix namespaces every key written by the store.
const DefaultKeyPrefix = "courtside"

const (
	fieldPayload   = "payload"
	fieldHash      = "content_hash"
	fieldUpdatedAt = "updated_at"
)

// Store persists snapshots as one hash per session.
type Store struct {
	client *redis.Client
	prefix string
}

// Open parses a redis:// URL, connects and verifies the connection.
func Open(ctx context.Context, redisURL, prefix string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string) *Store {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Key returns the hash key for a session.
func (s *Store) Key(sessionID string) string {
	return fmt.Sprintf("%s:session:%s:snapshot", s.prefix, sessionID)
}

// Close closes the client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// GetSnapshot returns the latest snapshot for a session.
func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (storage.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SnapshotRecord{}, err
	}
	if s == nil || s.client == nil {
		return storage.SnapshotRecord{}, fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSessionID(sessionID); err != nil {
		return storage.SnapshotRecord{}, err
	}

	fields, err := s.client.HGetAll(ctx, s.Key(sessionID)).Result()
	if err != nil {
		return storage.SnapshotRecord{}, fmt.Errorf("get session snapshot: %w", err)
	}
	payload, ok := fields[fieldPayload]
	if !ok {
		return storage.SnapshotRecord{}, storage.ErrNotFound
	}
	rec := storage.SnapshotRecord{
		SessionID:   sessionID,
		Payload:     []byte(payload),
		ContentHash: fields[fieldHash],
	}
	if millis, err := strconv.ParseInt(fields[fieldUpdatedAt], 10, 64); err == nil {
		rec.UpdatedAt = time.UnixMilli(millis).UTC()
	}
	return rec, nil
}

// PutSnapshot replaces the session hash in a single transaction.
func (s *Store) PutSnapshot(ctx context.Context, record storage.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateRecord(record); err != nil {
		return err
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	key := s.Key(record.SessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldPayload, string(record.Payload),
			fieldHash, record.ContentHash,
			fieldUpdatedAt, strconv.FormatInt(updatedAt.UTC().UnixMilli(), 10),
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put session snapshot: %w", err)
	}
	return nil
}

var _ storage.SnapshotStore = (*Store)(nil)
