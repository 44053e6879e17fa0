// aead.go selects and constructs the authenticated ciphers used by the
// container codec and the encryption envelope.
//
// Two AEAD algorithms are supported:
//   - AES-256-GCM: hardware-accelerated on modern CPUs
//   - ChaCha20-Poly1305: fast everywhere, no hardware requirement
//
// Both use a 256-bit key, a 96-bit nonce and a 128-bit tag. Nonces are
// always drawn fresh from the CSPRNG by the caller; keys are derived per
// artifact from a password and a random salt, so random nonces carry no
// meaningful collision risk at the chunk counts involved.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// AEAD wraps a cipher.AEAD with the algorithm name it was built from.
// All decryption failures surface as dlerrors.ErrAuthenticationFailed;
// wrong password and tampered data are indistinguishable on purpose.
type AEAD struct {
	cipher    cipher.AEAD
	algorithm string
}

// NewAEAD creates an AEAD for the named algorithm with a 32-byte key.
func NewAEAD(algorithm string, key []byte) (*AEAD, error) {
	if len(key) != constants.KeySize {
		return nil, dlerrors.NewCodecError("crypto.NewAEAD", dlerrors.ErrUnsupportedAlgorithm)
	}

	var aeadCipher cipher.AEAD

	switch algorithm {
	case constants.EncryptionAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, dlerrors.NewCodecError("crypto.NewAEAD", err)
		}
		aeadCipher, err = cipher.NewGCM(block)
		if err != nil {
			return nil, dlerrors.NewCodecError("crypto.NewAEAD", err)
		}

	case constants.EncryptionChaCha20:
		var err error
		aeadCipher, err = chacha20poly1305.New(key)
		if err != nil {
			return nil, dlerrors.NewCodecError("crypto.NewAEAD", err)
		}

	default:
		return nil, dlerrors.ErrUnsupportedAlgorithm
	}

	return &AEAD{cipher: aeadCipher, algorithm: algorithm}, nil
}

// Seal encrypts and authenticates plaintext with an explicit nonce.
// The returned ciphertext includes the authentication tag but not the nonce.
func (a *AEAD) Seal(nonce, plaintext, associatedData []byte) ([]byte, error) {
	if len(nonce) != constants.NonceSize {
		return nil, dlerrors.NewCodecError("crypto.Seal", dlerrors.ErrUnsupportedAlgorithm)
	}
	return a.cipher.Seal(nil, nonce, plaintext, associatedData), nil
}

// Open authenticates and decrypts ciphertext produced by Seal with the
// same nonce and associated data.
func (a *AEAD) Open(nonce, ciphertext, associatedData []byte) ([]byte, error) {
	if len(nonce) != constants.NonceSize || len(ciphertext) < constants.TagSize {
		return nil, dlerrors.ErrAuthenticationFailed
	}
	plaintext, err := a.cipher.Open(nil, nonce, ciphertext, associatedData)
	if err != nil {
		return nil, dlerrors.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Algorithm returns the algorithm name the AEAD was built from.
func (a *AEAD) Algorithm() string {
	return a.algorithm
}

// Overhead returns the ciphertext expansion in bytes (the tag size).
func (a *AEAD) Overhead() int {
	return a.cipher.Overhead()
}

// AlgorithmID maps an algorithm name to its envelope wire id.
func AlgorithmID(algorithm string) (byte, error) {
	switch algorithm {
	case constants.EncryptionAESGCM:
		return constants.AlgorithmIDAESGCM, nil
	case constants.EncryptionChaCha20:
		return constants.AlgorithmIDChaCha20, nil
	default:
		return 0, dlerrors.ErrUnsupportedAlgorithm
	}
}

// AlgorithmName maps an envelope wire id back to its algorithm name.
func AlgorithmName(id byte) (string, error) {
	switch id {
	case constants.AlgorithmIDAESGCM:
		return constants.EncryptionAESGCM, nil
	case constants.AlgorithmIDChaCha20:
		return constants.EncryptionChaCha20, nil
	default:
		return "", dlerrors.ErrUnsupportedAlgorithm
	}
}
