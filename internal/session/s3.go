package session

import (
	"context"
	"fmt"

	"fitcoach/internal/storage"
)

// S3 keeps each slot as a JSON object in a bucket.
type S3 struct {
	bucket *storage.Bucket
}

func OpenS3(ctx context.Context, bucket, prefix, region string) (*S3, error) {
	b, err := storage.New(ctx, bucket, prefix, region)
	if err != nil {
		return nil, fmt.Errorf("open s3 session store: %w", err)
	}
	return NewS3(b), nil
}

func NewS3(bucket *storage.Bucket) *S3 {
	return &S3{bucket: bucket}
}

func (s *S3) Get(ctx context.Context, sessionID, slot string) ([]byte, error) {
	if err := checkKey(sessionID, slot); err != nil {
		return nil, err
	}
	data, err := s.bucket.DownloadBytes(ctx, s.bucket.KeyForSession(sessionID, slot))
	if storage.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return data, nil
}

func (s *S3) Set(ctx context.Context, sessionID, slot string, value []byte) error {
	if err := checkKey(sessionID, slot); err != nil {
		return err
	}
	if err := s.bucket.UploadBytes(ctx, s.bucket.KeyForSession(sessionID, slot), value, "application/json"); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *S3) Clear(ctx context.Context, sessionID string) error {
	if err := checkID(sessionID); err != nil {
		return err
	}
	for _, slot := range Slots {
		if err := s.bucket.Delete(ctx, s.bucket.KeyForSession(sessionID, slot)); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
	}
	return nil
}

func (s *S3) Close() error { return nil }
