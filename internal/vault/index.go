package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
)

// Index owns the authoritative item records: loading them from the remote
// store, writing them back full-replace, and mirroring every good copy
// into the per-identity local cache.
//
// Writes are last-write-wins across devices. There is no merge; the whole
// array is replaced on every Save.
type Index struct {
	store    blobstore.Store
	cache    localcache.Repository
	log      logging.Logger
	cacheKey string

	fileID string
	items  []*Item
}

func NewIndex(store blobstore.Store, cache localcache.Repository, log logging.Logger, cacheKey string) *Index {
	return &Index{store: store, cache: cache, log: log, cacheKey: cacheKey}
}

func (i *Index) SetFileID(id string) { i.fileID = id }
func (i *Index) FileID() string      { return i.fileID }

// Load fetches and parses the remote index. When the remote read fails or
// the payload is not a JSON array, the last cached snapshot is served
// instead (degraded mode); with no usable cache the vault starts empty.
// Load never fails the session over a bad remote.
func (i *Index) Load(ctx context.Context) error {
	if i.fileID == "" {
		return fmt.Errorf("index object not resolved")
	}

	data, err := i.store.ReadContent(ctx, i.fileID)
	if err != nil {
		i.log.Warn(ctx, "remote index read failed, serving cached snapshot", "error", err)
		i.restoreFromCache(ctx)
		return nil
	}

	items, err := parseItems(data)
	if err != nil {
		i.log.Warn(ctx, "remote index unusable, serving cached snapshot", "error", err)
		i.restoreFromCache(ctx)
		return nil
	}

	i.items = items
	if err := i.cache.Set(ctx, i.cacheKey, data); err != nil {
		i.log.Warn(ctx, "caching index snapshot failed", "error", err)
	}
	return nil
}

func parseItems(data []byte) ([]*Item, error) {
	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrIndexShapeInvalid, err)
	}
	if items == nil {
		items = []*Item{}
	}
	return items, nil
}

func (i *Index) restoreFromCache(ctx context.Context) {
	i.items = []*Item{}

	data, err := i.cache.Get(ctx, i.cacheKey)
	if err != nil || data == nil {
		return
	}
	items, err := parseItems(data)
	if err != nil {
		i.log.Warn(ctx, "cached index snapshot unusable", "error", err)
		return
	}
	i.items = items
}

// RestoreFromCache loads the cached snapshot without touching the remote.
// Used when the session opens with the store unreachable.
func (i *Index) RestoreFromCache(ctx context.Context) {
	i.restoreFromCache(ctx)
}

// Save writes the full item array to the remote index object and refreshes
// the cache. A remote failure is surfaced; the cache refresh is best
// effort.
func (i *Index) Save(ctx context.Context) error {
	if i.fileID == "" {
		return fmt.Errorf("index object not resolved")
	}

	data, err := i.Marshal()
	if err != nil {
		return err
	}

	if err := i.store.WriteContent(ctx, i.fileID, data, "application/json"); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}

	if err := i.cache.Set(ctx, i.cacheKey, data); err != nil {
		i.log.Warn(ctx, "caching index snapshot failed", "error", err)
	}
	return nil
}

// Marshal serializes the items two-space indented, the format every client
// of this index writes.
func (i *Index) Marshal() ([]byte, error) {
	items := i.items
	if items == nil {
		items = []*Item{}
	}
	return json.MarshalIndent(items, "", "  ")
}

func (i *Index) Items() []*Item {
	out := make([]*Item, len(i.items))
	copy(out, i.items)
	return out
}

func (i *Index) Len() int { return len(i.items) }

func (i *Index) Find(id string) *Item {
	for _, m := range i.items {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (i *Index) Append(m *Item) {
	i.items = append(i.items, m)
}

func (i *Index) Remove(id string) bool {
	for n, m := range i.items {
		if m.ID == id {
			i.items = append(i.items[:n], i.items[n+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps in a new item set (metadata import).
func (i *Index) Replace(items []*Item) {
	if items == nil {
		items = []*Item{}
	}
	i.items = items
}
