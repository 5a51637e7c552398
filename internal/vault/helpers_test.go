package vault

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/myvaultapp/myvault/internal/auth"
	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
)

var errAlwaysDown = errors.New("store down")

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestSession(t *testing.T, email string) (*Session, *blobstore.MemoryStore, *localcache.MemoryRepository) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	cache := localcache.NewMemoryRepository()
	s := NewSession(&auth.Identity{Email: email}, store, cache, testLogger())

	// deterministic, strictly increasing timestamps
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s, store, cache
}

// truncatingStore simulates an overwrite that silently loses most of the
// payload, so the post-write size check has something to catch.
type truncatingStore struct {
	*blobstore.MemoryStore
	target string
}

func (t *truncatingStore) WriteContent(ctx context.Context, id string, data []byte, contentType string) error {
	if id == t.target && len(data) > 4 {
		data = data[:4]
	}
	return t.MemoryStore.WriteContent(ctx, id, data, contentType)
}
