// Package s3store keeps session snapshots as objects in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/louisbranch/courtside/internal/services/scoring/storage"
)

const (
	metaContentHash = "content-hash"
	metaUpdatedAt   = "updated-at"
	contentType     = "application/json"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store persists snapshots as <prefix>/<session id>.json objects.
type Store struct {
	api    ObjectAPI
	bucket string
	prefix string
}

// Open loads the default AWS configuration and builds an S3-backed store.
// Region comes from the usual AWS environment when region is blank.
func Open(ctx context.Context, bucket, prefix, region string) (*Store, error) {
	var opts []func(*config.LoadOptions) error
	if strings.TrimSpace(region) != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix)
}

// New wraps an S3 API implementation.
func New(api ObjectAPI, bucket, prefix string) (*Store, error) {
	if api == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	return &Store{api: api, bucket: bucket, prefix: strings.Trim(strings.TrimSpace(prefix), "/")}, nil
}

// Key returns the object key for a session.
func (s *Store) Key(sessionID string) string {
	name := sessionID + ".json"
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Close is a no-op; the SDK client holds no long-lived connections of its own.
func (s *Store) Close() error {
	return nil
}

// GetSnapshot downloads the session object.
func (s *Store) GetSnapshot(ctx context.Context, sessionID string) (storage.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SnapshotRecord{}, err
	}
	if s == nil || s.api == nil {
		return storage.SnapshotRecord{}, fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateSessionID(sessionID); err != nil {
		return storage.SnapshotRecord{}, err
	}

	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.Key(sessionID)),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return storage.SnapshotRecord{}, storage.ErrNotFound
		}
		return storage.SnapshotRecord{}, fmt.Errorf("get snapshot object: %w", err)
	}
	defer out.Body.Close()

	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return storage.SnapshotRecord{}, fmt.Errorf("read snapshot object: %w", err)
	}
	rec := storage.SnapshotRecord{
		SessionID:   sessionID,
		Payload:     payload,
		ContentHash: out.Metadata[metaContentHash],
	}
	if millis, err := strconv.ParseInt(out.Metadata[metaUpdatedAt], 10, 64); err == nil {
		rec.UpdatedAt = time.UnixMilli(millis).UTC()
	} else if out.LastModified != nil {
		rec.UpdatedAt = out.LastModified.UTC()
	}
	return rec, nil
}

// PutSnapshot uploads the payload, overwriting any previous object.
func (s *Store) PutSnapshot(ctx context.Context, record storage.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.api == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateRecord(record); err != nil {
		return err
	}
	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.Key(record.SessionID)),
		Body:        bytes.NewReader(record.Payload),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metaContentHash: record.ContentHash,
			metaUpdatedAt:   strconv.FormatInt(updatedAt.UTC().UnixMilli(), 10),
		},
	})
	if err != nil {
		return fmt.Errorf("put snapshot object: %w", err)
	}
	return nil
}

var _ storage.SnapshotStore = (*Store)(nil)
