package envelope_test

import (
	"bytes"
	"testing"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/envelope"
)

func TestRoundTrip(t *testing.T) {
	plaintext := []byte("3.14159265358979323846")
	meta := map[string]string{"constant": "pi", "digits": "22"}

	for _, algorithm := range []string{constants.EncryptionAESGCM, constants.EncryptionChaCha20} {
		blob, err := envelope.Encrypt(plaintext, "hunter2", algorithm, meta)
		if err != nil {
			t.Fatalf("%s: Encrypt: %v", algorithm, err)
		}
		if !envelope.IsEnvelope(blob) {
			t.Errorf("%s: blob not recognized as envelope", algorithm)
		}

		got, gotMeta, err := envelope.Decrypt(blob, "hunter2")
		if err != nil {
			t.Fatalf("%s: Decrypt: %v", algorithm, err)
		}
		if !bytes.Equal(got, plaintext) {
			t.Errorf("%s: plaintext = %q", algorithm, got)
		}
		// The returned metadata is a superset of the input: original keys
		// plus the injected kdf and alg tags.
		for k, v := range meta {
			if gotMeta[k] != v {
				t.Errorf("%s: metadata[%q] = %q, want %q", algorithm, k, gotMeta[k], v)
			}
		}
		if gotMeta["kdf"] != constants.KDFName {
			t.Errorf("%s: kdf tag = %q", algorithm, gotMeta["kdf"])
		}
		if gotMeta["alg"] != algorithm {
			t.Errorf("%s: alg tag = %q", algorithm, gotMeta["alg"])
		}
	}
}

// TestMetadataWithoutPassword reads the associated data back without a
// key, the way an inspection tool lists an artifact's tags before
// prompting for a password.
func TestMetadataWithoutPassword(t *testing.T) {
	blob, err := envelope.Encrypt([]byte("2.71828"), "hunter2", constants.EncryptionAESGCM, map[string]string{"constant": "e"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	meta, err := envelope.Metadata(blob)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if meta["constant"] != "e" || meta["alg"] != constants.EncryptionAESGCM || meta["kdf"] != constants.KDFName {
		t.Errorf("metadata = %v", meta)
	}

	if _, err := envelope.Metadata([]byte("DLOOMCH1 not an envelope")); !dlerrors.Is(err, dlerrors.ErrBadMagic) {
		t.Errorf("bad magic: got %v", err)
	}
	if _, err := envelope.Metadata(blob[:10]); !dlerrors.Is(err, dlerrors.ErrTruncated) {
		t.Errorf("truncated: got %v", err)
	}
}

func TestEmptyPlaintext(t *testing.T) {
	blob, err := envelope.Encrypt(nil, "pw", constants.EncryptionAESGCM, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, _, err := envelope.Decrypt(blob, "pw")
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("plaintext = %q", got)
	}
}

func TestWrongPassword(t *testing.T) {
	blob, err := envelope.Encrypt([]byte("secret"), "correct", constants.EncryptionChaCha20, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, _, err := envelope.Decrypt(blob, "wrong"); !dlerrors.Is(err, dlerrors.ErrAuthenticationFailed) {
		t.Errorf("got %v", err)
	}
}

func TestTamperDetection(t *testing.T) {
	blob, err := envelope.Encrypt([]byte("14"), "pw", constants.EncryptionAESGCM, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	// Every byte after the algorithm id participates in authentication:
	// salt and nonce feed the key/decryption, AAD and ciphertext are
	// covered by the tag. Flipping any of them must fail closed.
	for i := len(constants.EnvelopeMagic) + 1; i < len(blob); i++ {
		tampered := append([]byte{}, blob...)
		tampered[i] ^= 0x01
		_, _, err := envelope.Decrypt(tampered, "pw")
		if err == nil {
			t.Fatalf("tampering byte %d went undetected", i)
		}
	}
}

func TestEncryptValidation(t *testing.T) {
	if _, err := envelope.Encrypt([]byte("x"), "", constants.EncryptionAESGCM, nil); !dlerrors.Is(err, dlerrors.ErrPasswordRequired) {
		t.Errorf("empty password: got %v", err)
	}
	if _, err := envelope.Encrypt([]byte("x"), "pw", "rot13", nil); !dlerrors.Is(err, dlerrors.ErrUnsupportedAlgorithm) {
		t.Errorf("bad algorithm: got %v", err)
	}
}

func TestDecryptValidation(t *testing.T) {
	blob, err := envelope.Encrypt([]byte("x"), "pw", constants.EncryptionAESGCM, nil)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, _, err := envelope.Decrypt(blob[:10], "pw"); !dlerrors.Is(err, dlerrors.ErrTruncated) {
		t.Errorf("short blob: got %v", err)
	}
	if _, _, err := envelope.Decrypt(blob, ""); !dlerrors.Is(err, dlerrors.ErrPasswordRequired) {
		t.Errorf("empty password: got %v", err)
	}

	badMagic := append([]byte{}, blob...)
	badMagic[0] = 'X'
	if _, _, err := envelope.Decrypt(badMagic, "pw"); !dlerrors.Is(err, dlerrors.ErrBadMagic) {
		t.Errorf("bad magic: got %v", err)
	}

	badAlg := append([]byte{}, blob...)
	badAlg[len(constants.EnvelopeMagic)] = 99
	if _, _, err := envelope.Decrypt(badAlg, "pw"); !dlerrors.Is(err, dlerrors.ErrUnsupportedAlgorithm) {
		t.Errorf("bad alg id: got %v", err)
	}
}

func TestEnvelopesAreUnique(t *testing.T) {
	a, err := envelope.Encrypt([]byte("x"), "pw", constants.EncryptionAESGCM, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := envelope.Encrypt([]byte("x"), "pw", constants.EncryptionAESGCM, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a, b) {
		t.Error("two envelopes of the same plaintext are identical; salt/nonce not fresh")
	}
}
