package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/ppiankov/neurofold/internal/cloud"
	"github.com/ppiankov/neurofold/internal/k8s"
)

const sampleLog = "12.3s\t1\tFold 1\n15.0s\t2\tFold 1 | Epoch 1 | Step 100/381 | Loss: 0.3754\n"

func readAll(t *testing.T, o Opener, name string) ([]byte, error) {
	t.Helper()
	rc, err := o.Open(context.Background(), name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

type memBackend struct {
	objects map[string]string
}

func (m *memBackend) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (m *memBackend) Upload(context.Context, string, io.Reader, int64) error { return nil }

func (m *memBackend) List(context.Context, string) ([]cloud.ObjectInfo, error) { return nil, nil }

func compress(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	var o Opener
	data, err := readAll(t, o, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleLog {
		t.Errorf("got %q", data)
	}
}

func TestOpenZstdFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log.zst")
	if err := os.WriteFile(path, compress(t, sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	var o Opener
	data, err := readAll(t, o, path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleLog {
		t.Errorf("got %q", data)
	}
}

func TestOpenMissingFile(t *testing.T) {
	var o Opener
	if _, err := o.Open(context.Background(), filepath.Join(t.TempDir(), "nope.log")); err == nil {
		t.Fatal("expected error")
	}
	if _, err := o.Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty location")
	}
}

func TestOpenStdin(t *testing.T) {
	o := Opener{Stdin: strings.NewReader(sampleLog)}
	data, err := readAll(t, o, Stdin)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleLog {
		t.Errorf("got %q", data)
	}
}

func TestOpenCloud(t *testing.T) {
	var gotScheme, gotBucket string
	mem := &memBackend{objects: map[string]string{
		"cv/run.log":     sampleLog,
		"cv/run.log.zst": string(compress(t, sampleLog)),
	}}
	o := Opener{
		NewBackend: func(_ context.Context, scheme, bucket string) (cloud.Backend, error) {
			gotScheme, gotBucket = scheme, bucket
			return mem, nil
		},
	}

	for _, url := range []string{"s3://runs/cv/run.log", "gs://runs/cv/run.log.zst"} {
		data, err := readAll(t, o, url)
		if err != nil {
			t.Fatalf("%s: %v", url, err)
		}
		if string(data) != sampleLog {
			t.Errorf("%s: got %q", url, data)
		}
	}
	if gotScheme != "gs" || gotBucket != "runs" {
		t.Errorf("backend = %s/%s", gotScheme, gotBucket)
	}

	if _, err := o.Open(context.Background(), "s3://runs/cv/missing.log"); err == nil {
		t.Error("expected error for missing key")
	}
	if _, err := o.Open(context.Background(), "s3://runs"); err == nil {
		t.Error("expected error for bucket without key")
	}
}

func TestOpenPod(t *testing.T) {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "train-0", Namespace: "ml"},
		Spec:       corev1.PodSpec{Containers: []corev1.Container{{Name: "trainer"}}},
	}
	cs := fake.NewSimpleClientset(pod) //nolint:staticcheck // NewClientset requires generated apply configs

	var gotNS string
	o := Opener{
		NewK8s: func(ns string) (*k8s.Client, error) {
			gotNS = ns
			return k8s.NewClientFromInterface(cs, ns), nil
		},
	}
	data, err := readAll(t, o, "pod://ml/train-0")
	if err != nil {
		t.Fatal(err)
	}
	if gotNS != "ml" {
		t.Errorf("namespace = %q", gotNS)
	}
	if string(data) != "fake logs" {
		t.Errorf("got %q", data)
	}
}

func TestLabel(t *testing.T) {
	if Label("-") != "stdin" || Label("run.log") != "run.log" {
		t.Error("Label mismatch")
	}
}
