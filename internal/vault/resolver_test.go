package vault

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/localcache"
)

func newTestResolver(t *testing.T, store *blobstore.MemoryStore) (*Resolver, *localcache.MemoryRepository) {
	t.Helper()
	cache := localcache.NewMemoryRepository()
	return NewResolver(store, cache, testLogger(), "folder_test", "meta_id_test"), cache
}

func TestResolver_CreatesContainerAndIndex(t *testing.T) {
	store := blobstore.NewMemoryStore()
	r, cache := newTestResolver(t, store)
	ctx := context.Background()

	containerID, indexID, err := r.Resolve(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, containerID)
	require.NotEmpty(t, indexID)

	// container was created with the canonical name
	info, err := store.GetMeta(ctx, containerID)
	require.NoError(t, err)
	require.Equal(t, FolderName, info.Name)
	require.Equal(t, blobstore.FolderMimeType, info.MimeType)

	// index object was seeded with an empty array
	data, err := store.ReadContent(ctx, indexID)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))

	// both ids landed in the cache
	cachedFolder, err := cache.Get(ctx, "folder_test")
	require.NoError(t, err)
	require.Equal(t, containerID, string(cachedFolder))
	cachedMeta, err := cache.Get(ctx, "meta_id_test")
	require.NoError(t, err)
	require.Equal(t, indexID, string(cachedMeta))
}

func TestResolver_FindsExistingContainerByLegacyName(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	legacyID, err := store.Create(ctx, LegacyFolderName, "", blobstore.FolderMimeType)
	require.NoError(t, err)

	r, _ := newTestResolver(t, store)
	containerID, err := r.EnsureContainer(ctx)
	require.NoError(t, err)
	require.Equal(t, legacyID, containerID)
}

func TestResolver_DuplicateContainers_PrefersTheOneWithIndex(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		name := "list order forward"
		if reversed {
			name = "list order reversed"
		}
		t.Run(name, func(t *testing.T) {
			store := blobstore.NewMemoryStore()
			ctx := context.Background()

			husk, err := store.Create(ctx, FolderName, "", blobstore.FolderMimeType)
			require.NoError(t, err)
			real, err := store.Create(ctx, LegacyFolderName, "", blobstore.FolderMimeType)
			require.NoError(t, err)
			_, err = store.Create(ctx, MetaFileName, real, "application/json")
			require.NoError(t, err)

			store.ListReversed = reversed

			r, _ := newTestResolver(t, store)
			containerID, err := r.EnsureContainer(ctx)
			require.NoError(t, err)
			require.Equal(t, real, containerID, "must pick the container holding the index")
			require.NotEqual(t, husk, containerID)
		})
	}
}

func TestResolver_DuplicateContainers_NoIndexFallsBackToFirst(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	first, err := store.Create(ctx, FolderName, "", blobstore.FolderMimeType)
	require.NoError(t, err)
	_, err = store.Create(ctx, FolderName, "", blobstore.FolderMimeType)
	require.NoError(t, err)

	r, _ := newTestResolver(t, store)
	containerID, err := r.EnsureContainer(ctx)
	require.NoError(t, err)
	require.Equal(t, first, containerID)
}

func TestResolver_CachedContainerIDSkipsRemote(t *testing.T) {
	store := blobstore.NewMemoryStore()
	r, cache := newTestResolver(t, store)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "folder_test", []byte("cached-folder")))
	store.ListErr = errAlwaysDown

	containerID, err := r.EnsureContainer(ctx)
	require.NoError(t, err)
	require.Equal(t, "cached-folder", containerID)
}

func TestResolver_StaleCachedIndexIDIsReResolved(t *testing.T) {
	store := blobstore.NewMemoryStore()
	r, cache := newTestResolver(t, store)
	ctx := context.Background()

	containerID, err := store.Create(ctx, FolderName, "", blobstore.FolderMimeType)
	require.NoError(t, err)
	realIndex, err := store.Create(ctx, MetaFileName, containerID, "application/json")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "meta_id_test", []byte("long-gone-id")))

	indexID, err := r.EnsureIndexFile(ctx)
	require.NoError(t, err)
	require.Equal(t, realIndex, indexID)
}
