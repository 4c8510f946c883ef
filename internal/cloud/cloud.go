// Package cloud reads training logs from and publishes exports to S3 and GCS.
package cloud

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"
)

// Backend is the object storage surface neurofold needs.
type Backend interface {
	// Open streams the object at key. The caller closes the reader.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Upload writes size bytes from r to key.
	Upload(ctx context.Context, key string, r io.Reader, size int64) error

	// List returns the objects under prefix.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// ObjectInfo describes a remote object.
type ObjectInfo struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified,omitempty"`
}

// Location is a parsed s3:// or gs:// URL.
type Location struct {
	Scheme string
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Key == "" {
		return l.Scheme + "://" + l.Bucket
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Key
}

// Join returns l with name appended to its key.
func (l Location) Join(name string) Location {
	if l.Key == "" {
		l.Key = name
	} else {
		l.Key = path.Join(l.Key, name)
	}
	return l
}

// IsURL reports whether raw names an object store location.
func IsURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "s3://") || strings.HasPrefix(raw, "gs://")
}

// ParseURL parses an s3:// or gs:// URL. A trailing slash on the key is
// dropped.
func ParseURL(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty URL")
	}

	var loc Location
	var rest string
	switch {
	case strings.HasPrefix(raw, "s3://"):
		loc.Scheme = "s3"
		rest = strings.TrimPrefix(raw, "s3://")
	case strings.HasPrefix(raw, "gs://"):
		loc.Scheme = "gs"
		rest = strings.TrimPrefix(raw, "gs://")
	default:
		return Location{}, fmt.Errorf("unsupported scheme in %q: expected s3:// or gs://", raw)
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Location{}, fmt.Errorf("empty bucket in %q", raw)
	}
	loc.Bucket = bucket
	loc.Key = strings.TrimSuffix(key, "/")
	return loc, nil
}

// NewBackend creates a Backend for the given scheme and bucket.
func NewBackend(ctx context.Context, scheme, bucket string) (Backend, error) {
	switch scheme {
	case "s3":
		return newS3Backend(ctx, bucket)
	case "gs":
		return newGCSBackend(ctx, bucket)
	default:
		return nil, fmt.Errorf("unsupported scheme %q: expected s3 or gs", scheme)
	}
}

// UploadFile copies the local file at src to key.
func UploadFile(ctx context.Context, b Backend, src, key string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if err := b.Upload(ctx, key, f, info.Size()); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

var logSuffixes = []string{".log", ".txt", ".log.zst", ".txt.zst"}

// IsLogKey reports whether key looks like a training log neurofold can read.
func IsLogKey(key string) bool {
	for _, s := range logSuffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}
