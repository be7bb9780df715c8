// Package objectstore implements the MinIO/S3-compatible source bucket
// boundary that SourceMonitor polls.
package objectstore

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/wk-archive/meetingmind/internal/apperr"
	"github.com/wk-archive/meetingmind/internal/logger"
	"github.com/wk-archive/meetingmind/internal/types/interfaces"
)

// Store implements interfaces.ObjectStore over a minio.Client.
type Store struct {
	client *minio.Client
}

// New wraps an already-configured MinIO client.
func New(client *minio.Client) *Store {
	return &Store{client: client}
}

// ListObjects lists every object under prefix, recursively.
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string) ([]interfaces.ObjectInfo, error) {
	var out []interfaces.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list objects in %s/%s: %v", apperr.ErrTransientExternal, bucket, prefix, obj.Err)
		}
		out = append(out, interfaces.ObjectInfo{
			Key:          obj.Key,
			ETag:         obj.ETag,
			Size:         obj.Size,
			LastModified: obj.LastModified.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, nil
}

// GetObject fetches one object's full body.
func (s *Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: get object %s/%s: %v", apperr.ErrTransientExternal, bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("%w: read object %s/%s: %v", apperr.ErrTransientExternal, bucket, key, err)
	}
	logger.GetLogger(ctx).Infof("fetched object %s/%s (%d bytes)", bucket, key, len(data))
	return data, nil
}

// Ping verifies the client can reach the MinIO server by listing buckets.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("%w: minio ping: %v", apperr.ErrTransientExternal, err)
	}
	return nil
}
