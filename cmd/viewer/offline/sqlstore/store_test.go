package sqlstore

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-viewer/cmd/viewer/offline"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPutAndMatch(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	c, err := s.Open(ctx, "chat-viewer-v1")
	require.NoError(t, err)

	stored := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	err = c.Put(ctx, "https://cdn.example.com/a.css", &offline.Entry{
		URL:        "https://cdn.example.com/a.css",
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/css"}},
		Body:       []byte("body{}"),
		StoredAt:   stored,
	})
	require.NoError(t, err)

	got, err := c.Match(ctx, "https://cdn.example.com/a.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "text/css", got.Header.Get("Content-Type"))
	assert.Equal(t, []byte("body{}"), got.Body)
	assert.True(t, stored.Equal(got.StoredAt))

	_, err = c.Match(ctx, "https://cdn.example.com/missing.css")
	assert.ErrorIs(t, err, offline.ErrCacheMiss)
}

func TestPutOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	c, err := s.Open(ctx, "v1")
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, "k", &offline.Entry{StatusCode: 200, Body: []byte("old"), StoredAt: time.Now()}))
	require.NoError(t, c.Put(ctx, "k", &offline.Entry{StatusCode: 200, Body: []byte("new"), StoredAt: time.Now()}))

	got, err := c.Match(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got.Body))
}

func TestKeysAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Open(ctx, "v2")
	require.NoError(t, err)
	old, err := s.Open(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, old.Put(ctx, "k", &offline.Entry{StatusCode: 200, StoredAt: time.Now()}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, keys)

	deleted, err := s.Delete(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "v1")
	require.NoError(t, err)
	assert.False(t, deleted)

	keys, err = s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, keys)

	// 재생성된 캐시에는 이전 엔트리가 남아있지 않아야 함
	again, err := s.Open(ctx, "v1")
	require.NoError(t, err)
	_, err = again.Match(ctx, "k")
	assert.ErrorIs(t, err, offline.ErrCacheMiss)
}

func TestWorkerInstallsIntoSQLite(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	network := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"text/css"}},
			Body:       http.NoBody,
			Request:    req,
		}, nil
	})
	w := offline.NewWorker(offline.Config{Name: "v1", Assets: []string{"https://cdn.example.com/a.css"}}, s, network)
	require.NoError(t, w.Install(ctx))

	c, err := s.Open(ctx, "v1")
	require.NoError(t, err)
	got, err := c.Match(ctx, "https://cdn.example.com/a.css")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
