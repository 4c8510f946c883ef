package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// gcsObjectIterator abstracts the GCS object iterator.
type gcsObjectIterator interface {
	Next() (*gstorage.ObjectAttrs, error)
}

type gcsBackend struct {
	bucket      string
	newWriter   func(ctx context.Context, key string) io.WriteCloser
	newReader   func(ctx context.Context, key string) (io.ReadCloser, error)
	newIterator func(ctx context.Context, prefix string) gcsObjectIterator
}

func newGCSBackend(ctx context.Context, bucket string) (*gcsBackend, error) {
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	bkt := client.Bucket(bucket)
	return &gcsBackend{
		bucket: bucket,
		newWriter: func(ctx context.Context, key string) io.WriteCloser {
			w := bkt.Object(key).NewWriter(ctx)
			w.ContentType = "text/plain"
			return w
		},
		newReader: func(ctx context.Context, key string) (io.ReadCloser, error) {
			return bkt.Object(key).NewReader(ctx)
		},
		newIterator: func(ctx context.Context, prefix string) gcsObjectIterator {
			return bkt.Objects(ctx, &gstorage.Query{Prefix: prefix})
		},
	}, nil
}

func (b *gcsBackend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := b.newReader(ctx, key)
	if errors.Is(err, gstorage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gcs get %s: %w: %w", key, fs.ErrNotExist, err)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs get %s: %w", key, err)
	}
	return r, nil
}

func (b *gcsBackend) Upload(ctx context.Context, key string, r io.Reader, _ int64) error {
	w := b.newWriter(ctx, key)
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("gcs upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs finalize %s: %w", key, err)
	}
	return nil
}

func (b *gcsBackend) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var objects []ObjectInfo
	it := b.newIterator(ctx, prefix)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list: %w", err)
		}
		objects = append(objects, ObjectInfo{Key: attrs.Name, Size: attrs.Size, Modified: attrs.Updated})
	}
	return objects, nil
}
