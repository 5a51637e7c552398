package vault

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/myvaultapp/myvault/internal/common"
	"github.com/myvaultapp/myvault/internal/cryptox"
)

// Rotate re-encrypts every item under a key derived from newPassword,
// overwriting each blob in place. Items are isolated: one failing at any
// step is counted and skipped, and its record keeps the old nonce and salt
// so the blob stays decryptable under the old password. The index is
// written once at the end, reflecting whatever mix was achieved. The
// caller owns both passwords; derived keys are wiped before returning.
func (s *Session) Rotate(ctx context.Context, oldPassword, newPassword []byte) (BatchResult, error) {
	res := BatchResult{Total: s.index.Len()}

	if err := checkPassword(oldPassword); err != nil {
		return res, err
	}
	if err := checkPassword(newPassword); err != nil {
		return res, err
	}
	if res.Total == 0 {
		return res, nil
	}

	if err := s.ensureIndex(ctx); err != nil {
		res.Fail = res.Total
		return res, fmt.Errorf("resolving vault: %w", err)
	}

	saltB64, salt, err := s.deviceSalt(ctx)
	if err != nil {
		res.Fail = res.Total
		return res, err
	}

	newKey := cryptox.DeriveKey(newPassword, salt)
	defer common.WipeByteArray(newKey)

	for _, item := range s.index.Items() {
		if err := s.rotateOne(ctx, item, oldPassword, newKey, saltB64); err != nil {
			s.log.Error(ctx, "rotation failed for item", "item", item.ID, "error", err)
			res.Fail++
			continue
		}
		res.OK++
	}

	if err := s.index.Save(ctx); err != nil {
		return res, err
	}

	s.recordActivity("rekey", res.String())
	s.log.Info(ctx, "rotation finished", "ok", res.OK, "fail", res.Fail, "total", res.Total)
	return res, nil
}

func (s *Session) rotateOne(ctx context.Context, item *Item, oldPassword, newKey []byte, newSaltB64 string) error {
	nonce, err := item.Nonce()
	if err != nil {
		return err
	}
	// items uploaded on other devices carry their own salt
	oldSalt, err := item.SaltBytes()
	if err != nil {
		return err
	}

	data, err := s.store.ReadContent(ctx, item.ID)
	if err != nil {
		return fmt.Errorf("fetching blob: %w", err)
	}
	if len(data) < cryptox.MinCiphertextSize {
		return fmt.Errorf("%w: %d bytes", common.ErrNotEncryptedData, len(data))
	}

	oldKey := cryptox.DeriveKey(oldPassword, oldSalt)
	defer common.WipeByteArray(oldKey)
	plaintext, err := cryptox.Decrypt(data, oldKey, nonce)
	if err != nil {
		return err
	}

	ciphertext, newNonce, err := cryptox.Encrypt(plaintext, newKey)
	if err != nil {
		return fmt.Errorf("re-encrypting: %w", err)
	}

	if err := s.store.WriteContent(ctx, item.ID, ciphertext, "application/octet-stream"); err != nil {
		return fmt.Errorf("overwriting blob: %w", err)
	}

	// post-write sanity: a blob that reads back below the ciphertext floor
	// means the overwrite did not take
	info, err := s.store.GetMeta(ctx, item.ID)
	if err != nil {
		s.log.Warn(ctx, "post-rotation size check unavailable", "item", item.ID, "error", err)
	} else if info.Size < cryptox.MinCiphertextSize {
		return fmt.Errorf("%w: blob is %d bytes after overwrite", common.ErrNotEncryptedData, info.Size)
	}

	item.IV = base64.StdEncoding.EncodeToString(newNonce)
	item.Salt = newSaltB64
	item.AppendLog("rekey", s.now())
	return nil
}
