package vault

import (
	"context"
	"fmt"

	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
)

// Resolver pins down where the vault lives remotely: the container folder
// and the index object inside it. The store has no create-if-absent, so a
// crashed first run can leave duplicate containers behind; the resolver
// must pick the same one every time rather than fork the vault.
type Resolver struct {
	store blobstore.Store
	cache localcache.Repository
	log   logging.Logger

	folderCacheKey string
	metaIDCacheKey string

	containerID string
	indexFileID string
}

func NewResolver(store blobstore.Store, cache localcache.Repository, log logging.Logger, folderCacheKey, metaIDCacheKey string) *Resolver {
	return &Resolver{
		store:          store,
		cache:          cache,
		log:            log,
		folderCacheKey: folderCacheKey,
		metaIDCacheKey: metaIDCacheKey,
	}
}

// Resolve returns the container and index object ids, finding or creating
// both as needed, and persists them to the cache in one write.
func (r *Resolver) Resolve(ctx context.Context) (containerID, indexFileID string, err error) {
	containerID, err = r.EnsureContainer(ctx)
	if err != nil {
		return "", "", err
	}

	indexFileID, err = r.EnsureIndexFile(ctx)
	if err != nil {
		return "", "", err
	}

	err = r.cache.SetMany(ctx, map[string][]byte{
		r.folderCacheKey: []byte(containerID),
		r.metaIDCacheKey: []byte(indexFileID),
	})
	if err != nil {
		r.log.Warn(ctx, "caching resolved ids failed", "error", err)
	}

	return containerID, indexFileID, nil
}

// EnsureContainer locates the vault folder. Resolution order: in-memory id,
// cached id, remote lookup by candidate names, create. When several
// candidates exist the one already holding the index file wins; otherwise
// the first listed is used deterministically.
func (r *Resolver) EnsureContainer(ctx context.Context) (string, error) {
	if r.containerID != "" {
		return r.containerID, nil
	}

	if cached, err := r.cache.Get(ctx, r.folderCacheKey); err == nil && len(cached) > 0 {
		r.containerID = string(cached)
		return r.containerID, nil
	}

	folders, err := r.store.List(ctx, blobstore.Query{
		Names:    []string{FolderName, LegacyFolderName},
		MimeType: blobstore.FolderMimeType,
	})
	if err != nil {
		return "", fmt.Errorf("locating vault container: %w", err)
	}

	switch len(folders) {
	case 0:
		id, err := r.store.Create(ctx, FolderName, "", blobstore.FolderMimeType)
		if err != nil {
			return "", fmt.Errorf("creating vault container: %w", err)
		}
		r.containerID = id
	case 1:
		r.containerID = folders[0].ID
	default:
		r.containerID = r.disambiguate(ctx, folders)
	}

	return r.containerID, nil
}

// disambiguate prefers the duplicate that already contains the index file;
// a folder without it is an empty husk from an interrupted run.
func (r *Resolver) disambiguate(ctx context.Context, folders []blobstore.ObjectInfo) string {
	for _, f := range folders {
		metas, err := r.store.List(ctx, blobstore.Query{
			Names:    []string{MetaFileName},
			ParentID: f.ID,
		})
		if err != nil {
			r.log.Warn(ctx, "probing duplicate container failed", "container", f.ID, "error", err)
			continue
		}
		if len(metas) > 0 {
			r.log.Info(ctx, "duplicate vault containers, picked the one with the index",
				"container", f.ID, "candidates", len(folders))
			return f.ID
		}
	}
	r.log.Warn(ctx, "duplicate vault containers, none holds an index; using first",
		"container", folders[0].ID, "candidates", len(folders))
	return folders[0].ID
}

// EnsureIndexFile locates the index object inside the container, creating
// and seeding it with an empty array when absent. A cached id is
// revalidated before use; ids go stale when the object is trashed or
// removed by another client.
func (r *Resolver) EnsureIndexFile(ctx context.Context) (string, error) {
	if r.indexFileID != "" {
		return r.indexFileID, nil
	}

	if cached, err := r.cache.Get(ctx, r.metaIDCacheKey); err == nil && len(cached) > 0 {
		id := string(cached)
		info, err := r.store.GetMeta(ctx, id)
		if err == nil && !info.Trashed {
			r.indexFileID = id
			return id, nil
		}
		r.log.Warn(ctx, "cached index id is stale, re-resolving", "id", id)
	}

	containerID, err := r.EnsureContainer(ctx)
	if err != nil {
		return "", err
	}

	files, err := r.store.List(ctx, blobstore.Query{
		Names:    []string{MetaFileName},
		ParentID: containerID,
	})
	if err != nil {
		return "", fmt.Errorf("locating index object: %w", err)
	}

	if len(files) > 0 {
		r.indexFileID = files[0].ID
		return r.indexFileID, nil
	}

	id, err := r.store.Create(ctx, MetaFileName, containerID, "application/json")
	if err != nil {
		return "", fmt.Errorf("creating index object: %w", err)
	}
	if err := r.store.WriteContent(ctx, id, []byte("[]"), "application/json"); err != nil {
		return "", fmt.Errorf("seeding index object: %w", err)
	}

	r.indexFileID = id
	return id, nil
}
