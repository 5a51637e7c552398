package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myvaultapp/myvault/internal/auth"
	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
	"github.com/myvaultapp/myvault/internal/vault"
)

func newTestApp(t *testing.T) (*App, *vault.Session) {
	t.Helper()
	store := blobstore.NewMemoryStore()
	cache := localcache.NewMemoryRepository()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	session := vault.NewSession(&auth.Identity{Email: "alice@example.com"}, store, cache, log)
	require.NoError(t, session.Open(context.Background()))

	return &App{session: session, reader: bufio.NewReader(strings.NewReader(""))}, session
}

func TestEditItem_CoversAllFields(t *testing.T) {
	app, session := newTestApp(t)
	ctx := context.Background()

	_, err := session.Upload(ctx, []vault.UploadFile{
		{Name: "trip.jpg", MimeType: "image/jpeg", Data: []byte("0123456789abcdef")},
	}, []byte("pw"), vault.UploadOptions{Category: "photos"})
	require.NoError(t, err)
	id := session.Items()[0].ID

	// title, category (kept), tags, album, date
	app.reader = bufio.NewReader(strings.NewReader(
		"Summer trip\n\nbeach\nvacation 2026\n2026-07-14\n"))
	require.NoError(t, app.editItem(ctx, id))

	item := session.Find(id)
	require.Equal(t, "Summer trip", item.Title)
	require.Equal(t, "photos", item.Category)
	require.Equal(t, []string{"beach"}, item.Tags)
	require.Equal(t, "vacation 2026", item.Album)
	require.Equal(t, "2026-07-14", item.Date)
}

func TestEditItem_DashClearsAlbumAndDate(t *testing.T) {
	app, session := newTestApp(t)
	ctx := context.Background()

	_, err := session.Upload(ctx, []vault.UploadFile{
		{Name: "trip.jpg", Data: []byte("0123456789abcdef")},
	}, []byte("pw"), vault.UploadOptions{Album: "old album", Date: "2025-01-01"})
	require.NoError(t, err)
	id := session.Items()[0].ID

	app.reader = bufio.NewReader(strings.NewReader("\n\n\n-\n-\n"))
	require.NoError(t, app.editItem(ctx, id))

	item := session.Find(id)
	require.Empty(t, item.Album)
	require.Empty(t, item.Date)
	require.Equal(t, "trip.jpg", item.Title, "empty inputs keep current values")
}
