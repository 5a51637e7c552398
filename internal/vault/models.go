// Package vault implements the encrypted document vault core: the item
// model, the authoritative metadata index, remote location resolution and
// the upload, retrieval and key-rotation pipelines.
package vault

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/cryptox"
)

// Remote naming conventions. LegacyFolderName is an older spelling some
// devices created; the resolver still matches it.
const (
	FolderName       = "MyVault"
	LegacyFolderName = "My Vault"
	MetaFileName     = "vault_meta.json"
	EncSuffix        = ".enc"
)

// DefaultCategory is applied when an item carries no or an empty category.
const DefaultCategory = "other"

// CategoryLabels is the fixed category set shown to users. Items may carry
// keys outside this set (written by other clients); they render as "other".
var CategoryLabels = map[string]string{
	"ids":          "IDs & Passports",
	"immigration":  "Immigration",
	"legal":        "Legal",
	"tax":          "Tax",
	"payment":      "Payment",
	"housing":      "Housing",
	"vehicles":     "Vehicles",
	"health":       "Health",
	"work":         "Work",
	"education":    "Education",
	"business":     "Business",
	"membership":   "Memberships",
	"receipts":     "Receipts",
	"photos":       "Photos",
	"applications": "Applications",
	"other":        "Other",
}

// LogEntry is one append-only audit event on an item.
type LogEntry struct {
	Type      string `json:"type"`
	Timestamp string `json:"ts"`
}

// Item describes one encrypted file. The JSON field names are the on-store
// index format shared with other clients and must not change.
type Item struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Category     string     `json:"category"`
	Tags         []string   `json:"tags,omitempty"`
	Album        string     `json:"album,omitempty"`
	Date         string     `json:"date,omitempty"`
	OriginalName string     `json:"originalName"`
	Size         int64      `json:"size"`
	MimeType     string     `json:"mimeType"`
	IV           string     `json:"iv"`
	Salt         string     `json:"salt"`
	CreatedAt    string     `json:"createdAt"`
	Logs         []LogEntry `json:"logs,omitempty"`
}

// Nonce decodes the stored base64 nonce. A missing or wrong-length nonce
// means the record cannot ever decrypt its blob.
func (m *Item) Nonce() ([]byte, error) {
	if m.IV == "" {
		return nil, fmt.Errorf("%w: item %s has no nonce", common.ErrCorruptMetadata, m.ID)
	}
	nonce, err := base64.StdEncoding.DecodeString(m.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: item %s nonce: %v", common.ErrCorruptMetadata, m.ID, err)
	}
	if len(nonce) != cryptox.NonceSize {
		return nil, fmt.Errorf("%w: item %s nonce is %d bytes", common.ErrCorruptMetadata, m.ID, len(nonce))
	}
	return nonce, nil
}

// SaltBytes decodes the stored base64 key-derivation salt.
func (m *Item) SaltBytes() ([]byte, error) {
	if m.Salt == "" {
		return nil, fmt.Errorf("%w: item %s has no salt", common.ErrCorruptMetadata, m.ID)
	}
	salt, err := base64.StdEncoding.DecodeString(m.Salt)
	if err != nil {
		return nil, fmt.Errorf("%w: item %s salt: %v", common.ErrCorruptMetadata, m.ID, err)
	}
	return salt, nil
}

// AppendLog records an audit event on the item.
func (m *Item) AppendLog(eventType string, at time.Time) {
	m.Logs = append(m.Logs, LogEntry{
		Type:      eventType,
		Timestamp: at.UTC().Format(time.RFC3339),
	})
}

// CategoryKey returns the category normalized to the known set.
func (m *Item) CategoryKey() string {
	if _, ok := CategoryLabels[m.Category]; ok {
		return m.Category
	}
	return DefaultCategory
}

// DisplayMimeType returns the content type a viewer should present the
// decrypted bytes as. Records written by older clients stored everything
// as octet-stream, so fall back to sniffing the original extension.
func (m *Item) DisplayMimeType() string {
	if m.MimeType != "" && m.MimeType != "application/octet-stream" {
		return m.MimeType
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(m.OriginalName), ".")) {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return "application/octet-stream"
}

// DisplayTitle prefers the user-given title and falls back to the original
// file name.
func (m *Item) DisplayTitle() string {
	if strings.TrimSpace(m.Title) != "" {
		return m.Title
	}
	return m.OriginalName
}

// NormalizeCategory maps an empty category to the default. Unknown keys
// pass through so records from newer clients survive a round-trip.
func NormalizeCategory(category string) string {
	if strings.TrimSpace(category) == "" {
		return DefaultCategory
	}
	return category
}
