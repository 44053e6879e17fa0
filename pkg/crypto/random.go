// Package crypto provides the cryptographic primitives behind DigitLoom's
// artifact formats: AEAD cipher selection, scrypt key derivation and
// CSPRNG access with consistent error handling.
package crypto

import (
	"crypto/rand"
	"io"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// SecureRandom reads cryptographically secure random bytes into b.
// It fails only if the operating system CSPRNG fails, which callers should
// treat as a critical system failure.
func SecureRandom(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return dlerrors.NewCodecError("crypto.SecureRandom", err)
	}
	return nil
}

// NewSalt returns a fresh random KDF salt.
func NewSalt() ([]byte, error) {
	salt := make([]byte, constants.SaltSize)
	if err := SecureRandom(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// NewNonce returns a fresh random AEAD nonce.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, constants.NonceSize)
	if err := SecureRandom(nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
