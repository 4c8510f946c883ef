// Package source resolves a log location into a readable stream.
//
// A location is a local path, "-" for standard input, an s3:// or gs://
// object URL, or a pod://namespace/name[/container] reference. Any location
// ending in ".zst" is decompressed with zstd.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/ppiankov/neurofold/internal/cloud"
	"github.com/ppiankov/neurofold/internal/k8s"
)

// Stdin is the location that reads standard input.
const Stdin = "-"

// Opener opens log locations. The zero value uses os.Stdin, the default
// cloud credentials chain and the default kubeconfig.
type Opener struct {
	Stdin      io.Reader
	NewBackend func(ctx context.Context, scheme, bucket string) (cloud.Backend, error)
	NewK8s     func(namespace string) (*k8s.Client, error)
}

// Open returns a stream of the raw log at name.
func (o *Opener) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("empty log location")
	}

	rc, err := o.openRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(name, ".zst") {
		return rc, nil
	}

	dec, err := zstd.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("zstd open %s: %w", name, err)
	}
	return &zstdReadCloser{dec: dec, under: rc}, nil
}

func (o *Opener) openRaw(ctx context.Context, name string) (io.ReadCloser, error) {
	switch {
	case name == Stdin:
		in := o.Stdin
		if in == nil {
			in = os.Stdin
		}
		return io.NopCloser(in), nil

	case cloud.IsURL(name):
		loc, err := cloud.ParseURL(name)
		if err != nil {
			return nil, err
		}
		if loc.Key == "" {
			return nil, fmt.Errorf("object key required in %s", name)
		}
		newBackend := o.NewBackend
		if newBackend == nil {
			newBackend = cloud.NewBackend
		}
		b, err := newBackend(ctx, loc.Scheme, loc.Bucket)
		if err != nil {
			return nil, err
		}
		return b.Open(ctx, loc.Key)

	case k8s.IsPodURL(name):
		ref, err := k8s.ParsePodRef(name)
		if err != nil {
			return nil, err
		}
		newK8s := o.NewK8s
		if newK8s == nil {
			newK8s = k8s.NewClient
		}
		c, err := newK8s(ref.Namespace)
		if err != nil {
			return nil, err
		}
		return c.PodLogs(ctx, ref)

	default:
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open log: %w", err)
		}
		return f, nil
	}
}

type zstdReadCloser struct {
	dec   *zstd.Decoder
	under io.Closer
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.under.Close()
}

// Label returns a short display name for a location.
func Label(name string) string {
	if name == Stdin {
		return "stdin"
	}
	return name
}
