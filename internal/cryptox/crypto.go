// Package cryptox implements the vault's password-based key derivation and
// the authenticated encryption engine every stored file goes through.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/myvaultapp/myvault/internal/common"
)

const (
	// KDFIterations is the PBKDF2 cost. Changing it would strand every
	// previously encrypted file, so it is frozen.
	KDFIterations = 200_000

	// KeySize is the AES-256 key length in bytes.
	KeySize = 32

	// SaltSize is the key-derivation salt length in bytes.
	SaltSize = 16

	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12

	// MinCiphertextSize is the smallest byte count a fetched blob can have
	// and still plausibly be AES-GCM output. Anything smaller is a stale or
	// truncated download, not ciphertext.
	MinCiphertextSize = 32
)

// DeriveKey derives a 256-bit AES key from a password and salt with
// PBKDF2-SHA256. Deterministic: equal inputs always yield the same key.
// Callers must reject empty passwords before getting here.
func DeriveKey(password, salt []byte) []byte {
	return pbkdf2.Key(password, salt, KDFIterations, KeySize, sha256.New)
}

// GenerateSalt returns a fresh random key-derivation salt.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Encrypt seals plaintext with AES-256-GCM under key. A fresh random
// 12-byte nonce is generated per call and returned alongside the
// ciphertext; the authentication tag is appended to the ciphertext.
func Encrypt(plaintext, key []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Decrypt opens ciphertext produced by Encrypt. Any tag mismatch is
// reported as common.ErrAuthenticationFailed; the engine cannot tell a
// wrong password from corrupted data and does not try.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrAuthenticationFailed, err)
	}

	return plaintext, nil
}
