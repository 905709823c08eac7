package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeS3 is a path-style S3 endpoint holding objects in memory
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	buckets map[string]bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, buckets: map[string]bool{}}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	bucket, key, _ := strings.Cut(path, "/")

	if key == "" {
		switch r.Method {
		case http.MethodHead:
			if !f.buckets[bucket] {
				w.WriteHeader(http.StatusNotFound)
			}
		case http.MethodPut:
			f.buckets[bucket] = true
		}
		return
	}

	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[path] = body
		w.Header().Set("ETag", `"etag"`)
	case http.MethodHead:
		data, ok := f.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	case http.MethodGet:
		data, ok := f.objects[path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>not found</Message></Error>`))
			return
		}
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, path)
		w.WriteHeader(http.StatusNoContent)
	}
}

func newTestS3Store(t *testing.T) (*S3ArtifactStore, *fakeS3) {
	t.Helper()
	fake := newFakeS3()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	store, err := NewS3ArtifactStore(S3Config{
		Bucket:       "receipts",
		Endpoint:     server.URL,
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}, WithLogger(zaptest.NewLogger(t)), WithPresignExpiration(time.Minute))
	require.NoError(t, err)
	return store, fake
}

func TestNewS3ArtifactStore_Validation(t *testing.T) {
	_, err := NewS3ArtifactStore(S3Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")

	_, err = NewS3ArtifactStore(S3Config{Bucket: "b", AccessKey: "only-key"})
	require.Error(t, err)

	store, err := NewS3ArtifactStore(S3Config{Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "localhost:9000"})
	require.NoError(t, err)
	assert.Equal(t, "b", store.GetBucket())
	assert.Equal(t, 15*time.Minute, store.presignExpiration)
}

func TestS3ArtifactStore_RoundTrip(t *testing.T) {
	store, fake := newTestS3Store(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureBucket(ctx))
	assert.True(t, fake.buckets["receipts"])
	require.NoError(t, store.EnsureBucket(ctx))

	key := "tenant/2026/03/RCP-20260310-000001-ABCD.pdf"
	require.NoError(t, store.Put(ctx, key, []byte("%PDF-1.4 receipt"), "application/pdf"))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 receipt", string(data))

	require.NoError(t, store.Delete(ctx, key))
	exists, err = store.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestS3ArtifactStore_DownloadURL(t *testing.T) {
	store, _ := newTestS3Store(t)

	link, expiresAt, err := store.DownloadURL(context.Background(), "tenant/r.pdf")
	require.NoError(t, err)
	assert.Contains(t, link, "/receipts/tenant/r.pdf")
	assert.Contains(t, link, "X-Amz-Signature")
	assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 5*time.Second)

	_, _, err = store.DownloadURL(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestS3ArtifactStore_RejectsBadKeys(t *testing.T) {
	store, _ := newTestS3Store(t)
	ctx := context.Background()

	for _, key := range []string{"", "/abs/key.pdf", "tenant/../other.pdf"} {
		assert.ErrorIs(t, store.Put(ctx, key, []byte("x"), ""), ErrInvalidKey, key)
	}
}
