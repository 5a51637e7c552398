package vault

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/myvaultapp/myvault/internal/common"
)

// Delete removes the blob and the record. A blob already gone from the
// store still gets its record removed; the record is the thing users see.
func (s *Session) Delete(ctx context.Context, id string) error {
	item := s.index.Find(id)
	if item == nil {
		return fmt.Errorf("item %s: %w", id, common.ErrNotFound)
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting blob %s: %w", id, err)
	}

	s.index.Remove(id)
	if err := s.index.Save(ctx); err != nil {
		return err
	}

	s.recordActivity("delete", item.DisplayTitle())
	return nil
}

// ItemChanges carries an edit. Empty strings keep the current value; Album
// and Date are cleared with ClearAlbum/ClearDate; a non-nil Tags replaces
// the tag set.
type ItemChanges struct {
	Title      string
	Category   string
	Album      string
	ClearAlbum bool
	Date       string
	ClearDate  bool
	Tags       []string
}

// Edit updates an item's classification and saves the index.
func (s *Session) Edit(ctx context.Context, id string, changes ItemChanges) error {
	item := s.index.Find(id)
	if item == nil {
		return fmt.Errorf("item %s: %w", id, common.ErrNotFound)
	}

	if t := strings.TrimSpace(changes.Title); t != "" {
		item.Title = t
	}
	if changes.Category != "" {
		item.Category = NormalizeCategory(changes.Category)
	}
	if changes.ClearAlbum {
		item.Album = ""
	} else if a := strings.TrimSpace(changes.Album); a != "" {
		item.Album = a
	}
	if changes.ClearDate {
		item.Date = ""
	} else if changes.Date != "" {
		item.Date = changes.Date
	}
	if changes.Tags != nil {
		item.Tags = changes.Tags
	}

	if err := s.index.Save(ctx); err != nil {
		return err
	}
	return nil
}

// Search filters by case-insensitive substring over title, original name,
// category, tags and album, optionally restricted to one category, newest
// first.
func (s *Session) Search(query, category string) []*Item {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []*Item
	for _, item := range s.index.Items() {
		if category != "" && item.CategoryKey() != category {
			continue
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt > out[j].CreatedAt
	})
	return out
}

func matchesQuery(item *Item, query string) bool {
	if strings.Contains(strings.ToLower(item.Title), query) ||
		strings.Contains(strings.ToLower(item.OriginalName), query) ||
		strings.Contains(strings.ToLower(item.Category), query) ||
		strings.Contains(strings.ToLower(item.Album), query) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// CountByCategory tallies items per normalized category.
func (s *Session) CountByCategory() map[string]int {
	counts := make(map[string]int)
	for _, item := range s.index.Items() {
		counts[item.CategoryKey()]++
	}
	return counts
}

// ExportMetadata writes the metadata backup. It contains nonces and salts
// but no key material; it is useless without the password.
func (s *Session) ExportMetadata(w io.Writer) error {
	data, err := s.index.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ImportMetadata replaces the in-memory item set from a backup and saves.
// The save is best effort: a restored set is still useful offline.
func (s *Session) ImportMetadata(ctx context.Context, data []byte) (int, error) {
	items, err := parseItems(data)
	if err != nil {
		return 0, err
	}

	s.index.Replace(items)

	if err := s.ensureIndex(ctx); err != nil {
		s.log.Warn(ctx, "import kept local only, vault not resolved", "error", err)
		return len(items), nil
	}
	if err := s.index.Save(ctx); err != nil {
		s.log.Warn(ctx, "import kept local only, index save failed", "error", err)
	}
	return len(items), nil
}
