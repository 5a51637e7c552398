// Package common defines shared constants and sentinel errors used across
// MyVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Crypto-engine errors. A GCM tag mismatch cannot distinguish a wrong
	// password from corrupted ciphertext; both surface as this sentinel.
	ErrAuthenticationFailed = errors.New("authentication failed: wrong password or corrupted data")

	// Metadata errors.
	ErrCorruptMetadata   = errors.New("corrupt metadata")
	ErrIndexShapeInvalid = errors.New("metadata index is not a JSON array")

	// Retrieval errors.
	ErrNotEncryptedData = errors.New("blob too small to be encrypted data")

	// Remote-store errors.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	ErrNotFound          = errors.New("not found")

	// Session errors.
	ErrAccessDenied  = errors.New("access denied")
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrNotSignedIn   = errors.New("not signed in")
)
