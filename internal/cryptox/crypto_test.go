package cryptox

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/myvaultapp/myvault/internal/common"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt-16byt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	require.Equal(t, KeySize, len(key1))
	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
}

func TestDeriveKey_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestDeriveKey_DifferentPasswords(t *testing.T) {
	salt := []byte("fixed-salt-16byt")

	key1 := DeriveKey([]byte("password-a"), salt)
	key2 := DeriveKey([]byte("password-b"), salt)

	require.NotEqual(t, hex.EncodeToString(key1), hex.EncodeToString(key2))
}

func TestGenerateSalt(t *testing.T) {
	s1 := GenerateSalt()
	s2 := GenerateSalt()

	require.Equal(t, SaltSize, len(s1))
	require.Equal(t, SaltSize, len(s2))
	require.NotEqual(t, s1, s2)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	key := DeriveKey([]byte("correct horse"), GenerateSalt())
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	ciphertext, nonce, err := Encrypt(plaintext, key)
	require.NoError(t, err)
	require.Equal(t, NonceSize, len(nonce))
	require.NotEqual(t, plaintext, ciphertext)

	got, err := Decrypt(ciphertext, key, nonce)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestEncrypt_NonceUniqueness(t *testing.T) {
	key := DeriveKey([]byte("pw"), GenerateSalt())
	plaintext := []byte("x")

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		_, nonce, err := Encrypt(plaintext, key)
		require.NoError(t, err)
		k := string(nonce)
		if _, dup := seen[k]; dup {
			t.Fatalf("duplicate nonce after %d encryptions", i)
		}
		seen[k] = struct{}{}
	}
}

func TestDecrypt_WrongPassword(t *testing.T) {
	salt := GenerateSalt()
	key := DeriveKey([]byte("right"), salt)
	wrong := DeriveKey([]byte("wrong"), salt)

	ciphertext, nonce, err := Encrypt([]byte("payload"), key)
	require.NoError(t, err)

	_, err = Decrypt(ciphertext, wrong, nonce)
	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrAuthenticationFailed))
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	key := DeriveKey([]byte("pw"), GenerateSalt())

	ciphertext, nonce, err := Encrypt([]byte("sensitive document bytes"), key)
	require.NoError(t, err)

	// flipping any single byte must break the tag, nonce included
	for i := range ciphertext {
		tampered := bytes.Clone(ciphertext)
		tampered[i] ^= 0x01
		_, err := Decrypt(tampered, key, nonce)
		require.ErrorIs(t, err, common.ErrAuthenticationFailed, "byte %d", i)
	}

	badNonce := bytes.Clone(nonce)
	badNonce[0] ^= 0x01
	_, err = Decrypt(ciphertext, key, badNonce)
	require.ErrorIs(t, err, common.ErrAuthenticationFailed)
}
