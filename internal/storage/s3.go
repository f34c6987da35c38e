package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Bucket reads and writes small JSON objects under a key prefix.
type Bucket struct {
	client s3API
	bucket string
	prefix string
}

func New(ctx context.Context, bucket, prefix, region string) (*Bucket, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket is required")
	}
	if region == "" {
		region = "us-west-2"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewWithClient(bucket, prefix, s3.NewFromConfig(cfg)), nil
}

func NewWithClient(bucket, prefix string, client s3API) *Bucket {
	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: normalizePrefix(prefix),
	}
}

func (b *Bucket) Name() string   { return b.bucket }
func (b *Bucket) Prefix() string { return b.prefix }

// KeyForSession returns the object key of one slot in one session.
func (b *Bucket) KeyForSession(sessionID, slot string) string {
	return joinKey(b.prefix, "sessions", sessionID, slot+".json")
}

// UploadBytes uploads in-memory data to the given key.
func (b *Bucket) UploadBytes(ctx context.Context, key string, data []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	input.CacheControl = aws.String("no-store")
	_, err := b.client.PutObject(ctx, input)
	return err
}

// DownloadBytes downloads an object into memory.
func (b *Bucket) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// Delete removes an object. Deleting a missing key is not an error.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !IsNotFound(err) {
		return err
	}
	return nil
}

func normalizePrefix(prefix string) string {
	return strings.Trim(prefix, "/")
}

func joinKey(prefix string, parts ...string) string {
	all := []string{}
	if prefix != "" {
		all = append(all, prefix)
	}
	all = append(all, parts...)
	key := path.Join(all...)
	return strings.TrimPrefix(key, "/")
}

// IsNotFound returns true when the error indicates the object does not exist.
func IsNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound"
	}
	return false
}
