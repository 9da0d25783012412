package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"eventhub/internal/domain"
)

const objectPrefix = "images/"

// GCS stores blobs as objects in a Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS builds a client from application default credentials.
func NewGCS(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

var _ domain.BlobStore = (*GCS)(nil)

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) Store(ctx context.Context, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	id := uuid.NewString()
	w := g.object(id).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/octet-stream"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return id, nil
}

func (g *GCS) Retrieve(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	r, err := g.object(id).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("blob %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open GCS object %s: %w", id, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object %s: %w", id, err)
	}
	return data, nil
}

func (g *GCS) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := g.object(id).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", id, g.bucket, err)
	}
	return nil
}

func (g *GCS) List(ctx context.Context) ([]domain.BlobInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: objectPrefix})
	out := []domain.BlobInfo{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list GCS objects: %w", err)
		}
		out = append(out, domain.BlobInfo{
			UUID:      attrs.Name[len(objectPrefix):],
			CreatedAt: attrs.Created,
		})
	}
	return out, nil
}

func (g *GCS) object(id string) *storage.ObjectHandle {
	return g.client.Bucket(g.bucket).Object(objectPrefix + id)
}
