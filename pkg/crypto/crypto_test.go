package crypto_test

import (
	"bytes"
	"testing"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/crypto"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := bytes.Repeat([]byte{0xA5}, constants.SaltSize)

	k1, err := crypto.DeriveKey("password", salt)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	k2, err := crypto.DeriveKey("password", salt)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}

	if len(k1) != constants.KeySize {
		t.Errorf("key size: got %d, want %d", len(k1), constants.KeySize)
	}
	if !bytes.Equal(k1, k2) {
		t.Error("same password and salt derived different keys")
	}

	k3, err := crypto.DeriveKey("other", salt)
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	if bytes.Equal(k1, k3) {
		t.Error("different passwords derived the same key")
	}
}

func TestDeriveKeyRejectsEmptyPassword(t *testing.T) {
	salt := make([]byte, constants.SaltSize)
	if _, err := crypto.DeriveKey("", salt); !dlerrors.Is(err, dlerrors.ErrPasswordRequired) {
		t.Errorf("got %v, want ErrPasswordRequired", err)
	}
}

func TestDeriveKeyRejectsBadSalt(t *testing.T) {
	if _, err := crypto.DeriveKey("pw", []byte{1, 2, 3}); err == nil {
		t.Error("expected error for short salt")
	}
}

func TestAEADRoundTrip(t *testing.T) {
	for _, algorithm := range []string{constants.EncryptionAESGCM, constants.EncryptionChaCha20} {
		t.Run(algorithm, func(t *testing.T) {
			key := bytes.Repeat([]byte{0x42}, constants.KeySize)
			aead, err := crypto.NewAEAD(algorithm, key)
			if err != nil {
				t.Fatalf("NewAEAD failed: %v", err)
			}

			nonce, err := crypto.NewNonce()
			if err != nil {
				t.Fatalf("NewNonce failed: %v", err)
			}

			plaintext := []byte("3.14159265358979")
			aad := []byte("chunk-0")

			ct, err := aead.Seal(nonce, plaintext, aad)
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if len(ct) != len(plaintext)+constants.TagSize {
				t.Errorf("ciphertext size: got %d, want %d", len(ct), len(plaintext)+constants.TagSize)
			}

			pt, err := aead.Open(nonce, ct, aad)
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if !bytes.Equal(pt, plaintext) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestAEADOpenRejectsTamper(t *testing.T) {
	key := bytes.Repeat([]byte{7}, constants.KeySize)
	aead, err := crypto.NewAEAD(constants.EncryptionAESGCM, key)
	if err != nil {
		t.Fatalf("NewAEAD failed: %v", err)
	}

	nonce := make([]byte, constants.NonceSize)
	ct, err := aead.Seal(nonce, []byte("digits"), []byte("aad"))
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}

	for i := range ct {
		mutated := append([]byte(nil), ct...)
		mutated[i] ^= 0x01
		if _, err := aead.Open(nonce, mutated, []byte("aad")); !dlerrors.Is(err, dlerrors.ErrAuthenticationFailed) {
			t.Fatalf("byte %d: got %v, want ErrAuthenticationFailed", i, err)
		}
	}

	// Wrong associated data must also fail.
	if _, err := aead.Open(nonce, ct, []byte("other")); !dlerrors.Is(err, dlerrors.ErrAuthenticationFailed) {
		t.Errorf("wrong aad: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestNewAEADRejectsUnknownAlgorithm(t *testing.T) {
	key := make([]byte, constants.KeySize)
	if _, err := crypto.NewAEAD("rot13", key); !dlerrors.Is(err, dlerrors.ErrUnsupportedAlgorithm) {
		t.Errorf("got %v, want ErrUnsupportedAlgorithm", err)
	}
	if _, err := crypto.NewAEAD(constants.EncryptionAESGCM, key[:5]); err == nil {
		t.Error("expected error for short key")
	}
}

func TestAlgorithmIDMapping(t *testing.T) {
	tests := []struct {
		name string
		id   byte
	}{
		{constants.EncryptionAESGCM, constants.AlgorithmIDAESGCM},
		{constants.EncryptionChaCha20, constants.AlgorithmIDChaCha20},
	}
	for _, tt := range tests {
		id, err := crypto.AlgorithmID(tt.name)
		if err != nil || id != tt.id {
			t.Errorf("AlgorithmID(%q) = %d, %v", tt.name, id, err)
		}
		name, err := crypto.AlgorithmName(tt.id)
		if err != nil || name != tt.name {
			t.Errorf("AlgorithmName(%d) = %q, %v", tt.id, name, err)
		}
	}

	if _, err := crypto.AlgorithmID("none"); !dlerrors.Is(err, dlerrors.ErrUnsupportedAlgorithm) {
		t.Error("AlgorithmID should reject \"none\"")
	}
	if _, err := crypto.AlgorithmName(0xFF); !dlerrors.Is(err, dlerrors.ErrUnsupportedAlgorithm) {
		t.Error("AlgorithmName should reject unknown ids")
	}
}

func TestSecureRandomDistinct(t *testing.T) {
	a := make([]byte, 32)
	b := make([]byte, 32)
	if err := crypto.SecureRandom(a); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}
	if err := crypto.SecureRandom(b); err != nil {
		t.Fatalf("SecureRandom failed: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("two random reads returned identical bytes")
	}
}
