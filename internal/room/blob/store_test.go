package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	key := RenderedKey("abc", ".png")

	if _, err := s.Head(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on head, got %v", err)
	}
	if _, _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on get, got %v", err)
	}
	if _, err := s.Put(ctx, key, []byte("first"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, key, []byte("second"), "image/png"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	info, data, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "second" || info.Size != 6 {
		t.Fatalf("unexpected blob %q %+v", data, info)
	}
	if info.ContentType != "image/png" {
		t.Fatalf("content type = %q", info.ContentType)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)
	if m.Driver() != DriverMemory {
		t.Fatalf("driver = %q", m.Driver())
	}
	if keys := m.Keys(); len(keys) != 1 || keys[0] != "sessions/abc/rendered.png" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestFileStorage(t *testing.T) {
	s := NewFS(t.TempDir())
	exerciseStore(t, s)

	if _, err := s.Path("../escape.png"); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
	if _, err := s.Put(context.Background(), "/abs.png", nil, ""); err == nil {
		t.Fatalf("expected absolute key to be rejected")
	}
}

func TestKeysAndExtensions(t *testing.T) {
	if got := SourceKey("s1", ".jpeg"); got != "sessions/s1/source.jpeg" {
		t.Fatalf("SourceKey = %q", got)
	}
	if got := AnalysisRawKey("s1"); got != "sessions/s1/analysis.txt" {
		t.Fatalf("AnalysisRawKey = %q", got)
	}
	for ct, want := range map[string]string{"image/jpeg": ".jpeg", "image/png": ".png", "image/webp": ".webp", "image/svg+xml": ".svg"} {
		if got := ExtensionFor(ct); got != want {
			t.Fatalf("ExtensionFor(%q) = %q, want %q", ct, got, want)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "gcs"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewS3(context.Background(), S3Config{}); err == nil {
		t.Fatalf("expected bucket error")
	}
}

// fakeS3 держит объекты в памяти и отвечает ошибками SDK для отсутствующих ключей.
type fakeS3 struct {
	mu   sync.Mutex
	objs map[string][]byte
	cts  map[string]string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objs: map[string][]byte{}, cts: map[string]string{}}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objs[aws.ToString(in.Key)] = data
	f.cts[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objs[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentType:   aws.String(f.cts[aws.ToString(in.Key)]),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objs[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentType:   aws.String(f.cts[aws.ToString(in.Key)]),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func TestS3Storage(t *testing.T) {
	s := &S3Storage{client: newFakeS3(), bucket: "rooms"}
	exerciseStore(t, s)
	if s.Driver() != DriverS3 {
		t.Fatalf("driver = %q", s.Driver())
	}
}
