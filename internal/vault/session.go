package vault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/myvaultapp/myvault/internal/auth"
	"github.com/myvaultapp/myvault/internal/blobstore"
	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/cryptox"
	"github.com/myvaultapp/myvault/internal/localcache"
	"github.com/myvaultapp/myvault/internal/logging"
)

// Cache keys. The salt is device-wide; everything else is scoped per
// identity so two accounts on one device never see each other's metadata.
const (
	saltCacheKey = "myvault_salt"

	// legacyMetaCacheKey predates identity scoping and leaked the previous
	// account's index to the next one; it is deleted at session start.
	legacyMetaCacheKey = "myvault_meta_cache"

	metaCachePrefix   = "myvault_meta_cache_"
	folderCachePrefix = "myvault_folder_"
	metaIDCachePrefix = "myvault_meta_id_"
)

func cacheScope(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "anon"
	}
	return email
}

// activityLimit caps the session activity ring.
const activityLimit = 30

// Activity is one entry of the session activity feed.
type Activity struct {
	Type      string
	Title     string
	Timestamp string
}

// Session is one signed-in identity's view of the vault. It owns the
// identity, the store and cache handles, the resolver and the index, and
// is discarded wholesale on sign-out.
type Session struct {
	identity *auth.Identity
	store    blobstore.Store
	cache    localcache.Repository
	log      logging.Logger

	resolver *Resolver
	index    *Index
	activity []Activity

	// now is a test seam for timestamps.
	now func() time.Time
}

func NewSession(identity *auth.Identity, store blobstore.Store, cache localcache.Repository, log logging.Logger) *Session {
	scope := cacheScope(identity.Email)
	return &Session{
		identity: identity,
		store:    store,
		cache:    cache,
		log:      log,
		resolver: NewResolver(store, cache, log, folderCachePrefix+scope, metaIDCachePrefix+scope),
		index:    NewIndex(store, cache, log, metaCachePrefix+scope),
		now:      time.Now,
	}
}

func (s *Session) Identity() *auth.Identity { return s.identity }

// Open resolves the vault location and loads the index. With the store
// unreachable the session still opens on the cached snapshot; every
// later write will retry resolution first.
func (s *Session) Open(ctx context.Context) error {
	// the unscoped snapshot of older versions must never be served again
	if err := s.cache.Delete(ctx, legacyMetaCacheKey); err != nil {
		s.log.Warn(ctx, "removing legacy cache entry failed", "error", err)
	}

	_, indexFileID, err := s.resolver.Resolve(ctx)
	if err != nil {
		s.log.Warn(ctx, "vault resolution failed, opening on cached snapshot", "error", err)
		s.index.RestoreFromCache(ctx)
		s.recordActivity("login", s.identity.Email)
		return nil
	}

	s.index.SetFileID(indexFileID)
	if err := s.index.Load(ctx); err != nil {
		return err
	}

	s.recordActivity("login", s.identity.Email)
	s.log.Info(ctx, "vault opened", "items", s.index.Len())
	return nil
}

// ensureIndex makes sure the index object is resolved, for sessions that
// opened degraded.
func (s *Session) ensureIndex(ctx context.Context) error {
	if s.index.FileID() != "" {
		return nil
	}
	_, indexFileID, err := s.resolver.Resolve(ctx)
	if err != nil {
		return err
	}
	s.index.SetFileID(indexFileID)
	return nil
}

// deviceSalt returns the device key-derivation salt, minting and persisting
// one on first use. All encryption on this device shares it; per-item salts
// in the index keep old blobs decryptable after the device changes.
func (s *Session) deviceSalt(ctx context.Context) (saltB64 string, salt []byte, err error) {
	stored, err := s.cache.Get(ctx, saltCacheKey)
	if err != nil {
		return "", nil, fmt.Errorf("reading device salt: %w", err)
	}
	if len(stored) > 0 {
		salt, err := base64.StdEncoding.DecodeString(string(stored))
		if err == nil && len(salt) > 0 {
			return string(stored), salt, nil
		}
		s.log.Warn(ctx, "stored device salt unreadable, minting a new one")
	}

	salt = cryptox.GenerateSalt()
	saltB64 = base64.StdEncoding.EncodeToString(salt)
	if err := s.cache.Set(ctx, saltCacheKey, []byte(saltB64)); err != nil {
		return "", nil, fmt.Errorf("persisting device salt: %w", err)
	}
	return saltB64, salt, nil
}

func (s *Session) recordActivity(eventType, title string) {
	entry := Activity{
		Type:      eventType,
		Title:     title,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}
	s.activity = append([]Activity{entry}, s.activity...)
	if len(s.activity) > activityLimit {
		s.activity = s.activity[:activityLimit]
	}
}

// Activities returns the session activity feed, newest first.
func (s *Session) Activities() []Activity {
	out := make([]Activity, len(s.activity))
	copy(out, s.activity)
	return out
}

// Items returns the current item records, in index order.
func (s *Session) Items() []*Item { return s.index.Items() }

// Find returns the item with the given id, or nil.
func (s *Session) Find(id string) *Item { return s.index.Find(id) }

// SignOut drops all in-memory vault state. The caller revokes the token.
func (s *Session) SignOut() {
	s.index.Replace(nil)
	s.index.SetFileID("")
	s.resolver.containerID = ""
	s.resolver.indexFileID = ""
	s.activity = nil
}

func checkPassword(password []byte) error {
	if len(password) == 0 {
		return common.ErrEmptyPassword
	}
	return nil
}
