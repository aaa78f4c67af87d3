package s3store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/louisbranch/courtside/internal/services/scoring/storage"
	"github.com/louisbranch/courtside/internal/services/scoring/storage/storagetest"
)

type fakeObject struct {
	body     []byte
	metadata map[string]string
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	putErr  error
	gets    []string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]fakeObject{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = fakeObject{body: body, metadata: in.Metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.gets = append(f.gets, key)
	obj, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(obj.body)), Metadata: obj.metadata}, nil
}

func TestStoreContract(t *testing.T) {
	store, err := New(newFakeS3(), "courts", "snapshots")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	storagetest.RunSnapshotStoreSuite(t, store)
}

func TestKeyLayout(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{prefix: "", want: "default.json"},
		{prefix: "snapshots", want: "snapshots/default.json"},
		{prefix: "/club/night/", want: "club/night/default.json"},
	}
	for _, tt := range tests {
		store, err := New(newFakeS3(), "bucket", tt.prefix)
		if err != nil {
			t.Fatalf("new store: %v", err)
		}
		if got := store.Key("default"); got != tt.want {
			t.Fatalf("prefix %q key = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	api := newFakeS3()
	store, err := New(api, "courts", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	updated := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	rec := storage.SnapshotRecord{SessionID: "night", Payload: []byte(`{}`), ContentHash: "feed", UpdatedAt: updated}
	if err := store.PutSnapshot(context.Background(), rec); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := store.GetSnapshot(context.Background(), "night")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContentHash != "feed" {
		t.Fatalf("content hash = %q", got.ContentHash)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Fatalf("updated at = %v, want %v", got.UpdatedAt, updated)
	}
	if len(api.gets) != 1 || api.gets[0] != "courts/night.json" {
		t.Fatalf("gets = %v", api.gets)
	}
}

func TestPutErrorIsWrapped(t *testing.T) {
	api := newFakeS3()
	api.putErr = errors.New("access denied")
	store, err := New(api, "courts", "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	err = store.PutSnapshot(context.Background(), storage.SnapshotRecord{SessionID: "night", Payload: []byte(`{}`)})
	if !errors.Is(err, api.putErr) {
		t.Fatalf("put error = %v, want wrapped access denied", err)
	}
}

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New(nil, "bucket", ""); err == nil {
		t.Fatal("expected missing client error")
	}
	if _, err := New(newFakeS3(), "  ", ""); err == nil {
		t.Fatal("expected missing bucket error")
	}
}
