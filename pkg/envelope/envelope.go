// Package envelope implements single-blob password-based authenticated
// encryption with embedded key-derivation parameters.
//
// Wire Format:
//
//	+--------+--------+-------+--------+---------+------+-------------+
//	| Magic  | AlgID  | Salt  | Nonce  | AADLen  | AAD  | Ciphertext  |
//	| 6B     | 1B     | 16B   | 12B    | 4B BE   | Var  | Variable    |
//	+--------+--------+-------+--------+---------+------+-------------+
//
// AAD is the canonical JSON encoding of the caller metadata plus injected
// "kdf" and "alg" tags; it is authenticated, not encrypted, so a reader
// can inspect it before committing to key derivation. The ciphertext
// includes the AEAD authentication tag.
//
// Wrong password and tampered data both surface as ErrAuthenticationFailed;
// the two are deliberately indistinguishable.
package envelope

import (
	"encoding/binary"
	"encoding/json"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/crypto"
)

const prologueSize = len(constants.EnvelopeMagic) + 1 + constants.SaltSize + constants.NonceSize + 4

// Metadata keys injected into the associated data at encrypt time.
const (
	metaKDF       = "kdf"
	metaAlgorithm = "alg"
)

// Encrypt seals plaintext under a password-derived key. The metadata map
// is copied, extended with the kdf and alg tags, canonically encoded and
// bound to the ciphertext as associated data.
func Encrypt(plaintext []byte, password, algorithm string, metadata map[string]string) ([]byte, error) {
	if password == "" {
		return nil, dlerrors.ErrPasswordRequired
	}
	algID, err := crypto.AlgorithmID(algorithm)
	if err != nil {
		return nil, err
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	nonce, err := crypto.NewNonce()
	if err != nil {
		return nil, err
	}
	key, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer crypto.WipeKey(key)

	aead, err := crypto.NewAEAD(algorithm, key)
	if err != nil {
		return nil, err
	}

	tagged := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		tagged[k] = v
	}
	tagged[metaKDF] = constants.KDFName
	tagged[metaAlgorithm] = algorithm

	aad, err := json.Marshal(tagged)
	if err != nil {
		return nil, dlerrors.NewCodecError("envelope.Encrypt", err)
	}

	ciphertext, err := aead.Seal(nonce, plaintext, aad)
	if err != nil {
		return nil, err
	}

	blob := make([]byte, prologueSize+len(aad)+len(ciphertext))
	offset := 0
	copy(blob[offset:], constants.EnvelopeMagic)
	offset += len(constants.EnvelopeMagic)
	blob[offset] = algID
	offset++
	copy(blob[offset:], salt)
	offset += constants.SaltSize
	copy(blob[offset:], nonce)
	offset += constants.NonceSize
	binary.BigEndian.PutUint32(blob[offset:], uint32(len(aad)))
	offset += 4
	copy(blob[offset:], aad)
	offset += len(aad)
	copy(blob[offset:], ciphertext)

	return blob, nil
}

// Decrypt opens a blob produced by Encrypt, returning the plaintext and
// the authenticated metadata (including the injected kdf and alg tags).
func Decrypt(blob []byte, password string) ([]byte, map[string]string, error) {
	if password == "" {
		return nil, nil, dlerrors.ErrPasswordRequired
	}
	if len(blob) < prologueSize {
		return nil, nil, dlerrors.ErrTruncated
	}

	offset := 0
	if string(blob[offset:offset+len(constants.EnvelopeMagic)]) != constants.EnvelopeMagic {
		return nil, nil, dlerrors.ErrBadMagic
	}
	offset += len(constants.EnvelopeMagic)

	algorithm, err := crypto.AlgorithmName(blob[offset])
	if err != nil {
		return nil, nil, err
	}
	offset++

	salt := blob[offset : offset+constants.SaltSize]
	offset += constants.SaltSize
	nonce := blob[offset : offset+constants.NonceSize]
	offset += constants.NonceSize

	aadLen := binary.BigEndian.Uint32(blob[offset:])
	offset += 4
	remaining := len(blob) - offset
	if int64(aadLen) > int64(remaining-constants.TagSize) {
		return nil, nil, dlerrors.ErrTruncated
	}
	aad := blob[offset : offset+int(aadLen)]
	ciphertext := blob[offset+int(aadLen):]

	key, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return nil, nil, err
	}
	defer crypto.WipeKey(key)

	aead, err := crypto.NewAEAD(algorithm, key)
	if err != nil {
		return nil, nil, err
	}
	plaintext, err := aead.Open(nonce, ciphertext, aad)
	if err != nil {
		return nil, nil, err
	}

	var metadata map[string]string
	if err := json.Unmarshal(aad, &metadata); err != nil {
		return nil, nil, dlerrors.ErrHeaderInvalid
	}
	return plaintext, metadata, nil
}

// Metadata parses an envelope's associated data without deriving a key or
// authenticating the payload. Callers that need a trusted view of the tags
// must use Decrypt; this is for inspecting an artifact before a password
// is available.
func Metadata(blob []byte) (map[string]string, error) {
	if !IsEnvelope(blob) {
		return nil, dlerrors.ErrBadMagic
	}
	if len(blob) < prologueSize {
		return nil, dlerrors.ErrTruncated
	}

	offset := len(constants.EnvelopeMagic) + 1 + constants.SaltSize + constants.NonceSize
	aadLen := binary.BigEndian.Uint32(blob[offset:])
	offset += 4
	if int64(aadLen) > int64(len(blob)-offset) {
		return nil, dlerrors.ErrTruncated
	}

	var metadata map[string]string
	if err := json.Unmarshal(blob[offset:offset+int(aadLen)], &metadata); err != nil {
		return nil, dlerrors.ErrHeaderInvalid
	}
	return metadata, nil
}

// IsEnvelope reports whether blob starts with the envelope magic.
func IsEnvelope(blob []byte) bool {
	return len(blob) >= len(constants.EnvelopeMagic) &&
		string(blob[:len(constants.EnvelopeMagic)]) == constants.EnvelopeMagic
}
