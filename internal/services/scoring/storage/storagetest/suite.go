// Package storagetest holds a behavioral suite every SnapshotStore backend
// runs from its own tests.
package storagetest

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/louisbranch/courtside/internal/services/scoring/storage"
)

// RunSnapshotStoreSuite exercises the SnapshotStore contract against store.
// The store must start without a snapshot for the session ids used here.
func RunSnapshotStoreSuite(t *testing.T, store storage.SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing snapshot", func(t *testing.T) {
		_, err := store.GetSnapshot(ctx, "suite-missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("get missing = %v, want ErrNotFound", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		rec := storage.SnapshotRecord{
			SessionID:   "suite-roundtrip",
			Payload:     []byte(`{"players":[],"ui":{"activeTab":"american"}}`),
			ContentHash: "abc123",
			UpdatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		}
		if err := store.PutSnapshot(ctx, rec); err != nil {
			t.Fatalf("put: %v", err)
		}
		got, err := store.GetSnapshot(ctx, rec.SessionID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if !bytes.Equal(got.Payload, rec.Payload) {
			t.Fatalf("payload = %s, want %s", got.Payload, rec.Payload)
		}
		if got.SessionID != rec.SessionID {
			t.Fatalf("session id = %q", got.SessionID)
		}
	})

	t.Run("put replaces", func(t *testing.T) {
		for _, payload := range []string{`{"v":1}`, `{"v":2}`} {
			rec := storage.SnapshotRecord{SessionID: "suite-replace", Payload: []byte(payload), UpdatedAt: time.Now().UTC()}
			if err := store.PutSnapshot(ctx, rec); err != nil {
				t.Fatalf("put %s: %v", payload, err)
			}
		}
		got, err := store.GetSnapshot(ctx, "suite-replace")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got.Payload) != `{"v":2}` {
			t.Fatalf("payload = %s, want latest", got.Payload)
		}
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		for _, id := range []string{"suite-a", "suite-b"} {
			rec := storage.SnapshotRecord{SessionID: id, Payload: []byte(`"` + id + `"`), UpdatedAt: time.Now().UTC()}
			if err := store.PutSnapshot(ctx, rec); err != nil {
				t.Fatalf("put %s: %v", id, err)
			}
		}
		got, err := store.GetSnapshot(ctx, "suite-a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if string(got.Payload) != `"suite-a"` {
			t.Fatalf("payload = %s", got.Payload)
		}
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		if err := store.PutSnapshot(ctx, storage.SnapshotRecord{SessionID: "../escape", Payload: []byte("{}")}); err == nil {
			t.Fatal("expected invalid session id error")
		}
		if err := store.PutSnapshot(ctx, storage.SnapshotRecord{SessionID: "suite-empty"}); err == nil {
			t.Fatal("expected empty payload error")
		}
		if _, err := store.GetSnapshot(ctx, ""); err == nil {
			t.Fatal("expected blank session id error")
		}
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := store.GetSnapshot(cancelled, "suite-roundtrip"); err == nil {
			t.Fatal("expected cancelled context error")
		}
	})
}
