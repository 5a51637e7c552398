package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myvaultapp/myvault/internal/common"
)

func TestDelete(t *testing.T) {
	s, store, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	uploadN(t, s, 2, "pw")

	victim := s.Items()[0]
	require.NoError(t, s.Delete(ctx, victim.ID))

	require.Len(t, s.Items(), 1)
	require.Nil(t, s.Find(victim.ID))
	require.Nil(t, store.Content(victim.ID))
	require.Equal(t, "delete", s.Activities()[0].Type)
}

func TestDelete_BlobAlreadyGone(t *testing.T) {
	s, store, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	uploadN(t, s, 1, "pw")

	item := s.Items()[0]
	require.NoError(t, store.Delete(ctx, item.ID))

	// the record must still be removable
	require.NoError(t, s.Delete(ctx, item.ID))
	require.Empty(t, s.Items())
}

func TestDelete_UnknownID(t *testing.T) {
	s, _, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	err := s.Delete(ctx, "never-existed")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestEdit(t *testing.T) {
	s, _, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	uploadN(t, s, 1, "pw")

	id := s.Items()[0].ID

	require.NoError(t, s.Edit(ctx, id, ItemChanges{
		Title:    "Rental agreement 2026",
		Category: "housing",
		Tags:     []string{"lease", "2026"},
		Album:    "paperwork",
	}))

	item := s.Find(id)
	require.Equal(t, "Rental agreement 2026", item.Title)
	require.Equal(t, "housing", item.Category)
	require.Equal(t, []string{"lease", "2026"}, item.Tags)
	require.Equal(t, "paperwork", item.Album)

	// empty fields keep current values, ClearAlbum wipes
	require.NoError(t, s.Edit(ctx, id, ItemChanges{ClearAlbum: true}))
	item = s.Find(id)
	require.Equal(t, "Rental agreement 2026", item.Title)
	require.Empty(t, item.Album)
}

func TestSearch(t *testing.T) {
	s, _, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	_, err := s.Upload(ctx, []UploadFile{
		{Name: "passport.pdf", Data: []byte("pppppppppp")},
	}, []byte("pw"), UploadOptions{Title: "Passport", Category: "ids", Tags: []string{"travel"}})
	require.NoError(t, err)

	_, err = s.Upload(ctx, []UploadFile{
		{Name: "lease.pdf", Data: []byte("llllllllll")},
	}, []byte("pw"), UploadOptions{Title: "Lease", Category: "housing"})
	require.NoError(t, err)

	all := s.Search("", "")
	require.Len(t, all, 2)
	require.Equal(t, "Lease", all[0].Title, "newest first")

	require.Len(t, s.Search("", "ids"), 1)
	require.Len(t, s.Search("passport", ""), 1)
	require.Len(t, s.Search("TRAVEL", ""), 1, "tags match case-insensitively")
	require.Empty(t, s.Search("nothing-matches", ""))
}

func TestCountByCategory(t *testing.T) {
	s, _, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	_, err := s.Upload(ctx, []UploadFile{
		{Name: "a.pdf", Data: []byte("aaaaaaaaaa")},
		{Name: "b.pdf", Data: []byte("bbbbbbbbbb")},
	}, []byte("pw"), UploadOptions{Category: "tax"})
	require.NoError(t, err)

	counts := s.CountByCategory()
	require.Equal(t, 2, counts["tax"])
}

func TestExportImportMetadata(t *testing.T) {
	s, _, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	uploadN(t, s, 2, "pw")

	var backup bytes.Buffer
	require.NoError(t, s.ExportMetadata(&backup))

	var exported []Item
	require.NoError(t, json.Unmarshal(backup.Bytes(), &exported))
	require.Len(t, exported, 2)

	// wipe and restore
	s.index.Replace(nil)
	require.Empty(t, s.Items())

	n, err := s.ImportMetadata(ctx, backup.Bytes())
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, s.Items(), 2)

	// restored records still decrypt
	_, err = s.Retrieve(ctx, s.Items()[0], []byte("pw"))
	require.NoError(t, err)
}

func TestImportMetadata_RejectsNonArray(t *testing.T) {
	s, _, _ := newTestSession(t, "alice@example.com")
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	uploadN(t, s, 1, "pw")

	_, err := s.ImportMetadata(ctx, []byte(`{"id":"x"}`))
	require.ErrorIs(t, err, common.ErrIndexShapeInvalid)
	require.Len(t, s.Items(), 1, "a bad backup must not clobber the vault")
}
