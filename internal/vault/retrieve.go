package vault

import (
	"context"
	"fmt"

	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/cryptox"
)

// Retrieve downloads and decrypts one item. Metadata is validated before
// any network traffic; a fetched blob below the ciphertext floor is
// rejected as a stale or partial copy rather than fed to the cipher. The
// caller owns password; the derived key is wiped before returning.
func (s *Session) Retrieve(ctx context.Context, item *Item, password []byte) ([]byte, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	nonce, err := item.Nonce()
	if err != nil {
		return nil, err
	}
	salt, err := item.SaltBytes()
	if err != nil {
		return nil, err
	}

	data, err := s.store.ReadContent(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching blob %s: %w", item.ID, err)
	}
	if len(data) < cryptox.MinCiphertextSize {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrNotEncryptedData, len(data))
	}

	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	plaintext, err := cryptox.Decrypt(data, key, nonce)
	if err != nil {
		return nil, err
	}

	// audit trail is best effort; never hold plaintext hostage to it
	item.AppendLog("decrypt", s.now())
	if err := s.index.Save(ctx); err != nil {
		s.log.Warn(ctx, "recording decrypt event failed", "item", item.ID, "error", err)
	}

	s.recordActivity("decrypt", item.DisplayTitle())
	return plaintext, nil
}

// Preview bundles decrypted bytes with the content type a viewer should
// present them as.
type Preview struct {
	Data     []byte
	MimeType string
}

func (s *Session) Preview(ctx context.Context, item *Item, password []byte) (*Preview, error) {
	data, err := s.Retrieve(ctx, item, password)
	if err != nil {
		return nil, err
	}
	return &Preview{Data: data, MimeType: item.DisplayMimeType()}, nil
}
