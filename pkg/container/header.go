// header.go implements the container header: a JSON object carrying the
// format parameters plus caller metadata, integrity-protected by a sha-256
// hash over its canonical encoding.
//
// Canonical encoding is encoding/json with lexicographically sorted keys
// (the encoder's behavior for maps), UTF-8, no insignificant whitespace.
// The header_hash field is excluded from its own hash input.
package container

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// Reserved header keys. Caller metadata may not shadow these; reserved
// values always win.
const (
	keyVersion     = "version"
	keyHash        = "hash"
	keyCompression = "compression"
	keyEncryption  = "encryption"
	keyKDF         = "kdf"
	keySalt        = "salt"
	keyNonceLen    = "nonce_len"
	keyHeaderHash  = "header_hash"
)

// Header is the container's open-time metadata. Values round-trip through
// JSON, so numbers read back as float64.
type Header map[string]any

// newHeader assembles a writer-side header from caller metadata and the
// configured transforms. salt is nil when encryption is disabled.
func newHeader(metadata map[string]string, compression, encryption string, salt []byte) Header {
	h := make(Header, len(metadata)+8)
	for k, v := range metadata {
		h[k] = v
	}
	h[keyVersion] = constants.ContainerVersion
	h[keyHash] = constants.HashName
	h[keyCompression] = compression
	h[keyEncryption] = encryption
	if encryption != constants.EncryptionNone {
		h[keyKDF] = constants.KDFName
		h[keySalt] = base64.StdEncoding.EncodeToString(salt)
		h[keyNonceLen] = constants.NonceSize
	}
	return h
}

// canonicalBytes returns the canonical encoding of the header with the
// header_hash field excluded. This is the header-hash input.
func (h Header) canonicalBytes() ([]byte, error) {
	stripped := make(map[string]any, len(h))
	for k, v := range h {
		if k == keyHeaderHash {
			continue
		}
		stripped[k] = v
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		return nil, dlerrors.NewCodecError("container.header", err)
	}
	return data, nil
}

// computeHash returns the sha-256 of the canonical header encoding.
func (h Header) computeHash() ([]byte, error) {
	data, err := h.canonicalBytes()
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// seal computes the header hash, stores its hex form under header_hash and
// returns the raw hash bytes for use as AEAD associated data.
func (h Header) seal() ([]byte, error) {
	sum, err := h.computeHash()
	if err != nil {
		return nil, err
	}
	h[keyHeaderHash] = hex.EncodeToString(sum)
	return sum, nil
}

// verifyHash recomputes the header hash and compares it against the
// embedded header_hash field, returning the raw hash bytes on success.
func (h Header) verifyHash() ([]byte, error) {
	embedded, err := h.stringField(keyHeaderHash)
	if err != nil {
		return nil, dlerrors.ErrHeaderHashMismatch
	}
	want, err := hex.DecodeString(embedded)
	if err != nil || len(want) != constants.HashSize {
		return nil, dlerrors.ErrHeaderHashMismatch
	}
	got, err := h.computeHash()
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return nil, dlerrors.ErrHeaderHashMismatch
	}
	return got, nil
}

func (h Header) stringField(key string) (string, error) {
	v, ok := h[key]
	if !ok {
		return "", dlerrors.ErrHeaderInvalid
	}
	s, ok := v.(string)
	if !ok {
		return "", dlerrors.ErrHeaderInvalid
	}
	return s, nil
}

// intField reads a numeric header field. JSON decoding yields float64, so
// both the writer-side int and the reader-side float64 are accepted.
func (h Header) intField(key string) (int, error) {
	switch v := h[key].(type) {
	case int:
		return v, nil
	case float64:
		if v != float64(int(v)) {
			return 0, dlerrors.ErrHeaderInvalid
		}
		return int(v), nil
	default:
		return 0, dlerrors.ErrHeaderInvalid
	}
}

// saltBytes decodes the base64 salt field.
func (h Header) saltBytes() ([]byte, error) {
	encoded, err := h.stringField(keySalt)
	if err != nil {
		return nil, err
	}
	salt, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(salt) != constants.SaltSize {
		return nil, dlerrors.ErrHeaderInvalid
	}
	return salt, nil
}

// chunkAAD builds the associated data binding a chunk to this container
// and to its position: header hash followed by the big-endian chunk index.
func chunkAAD(headerHash []byte, index uint64) []byte {
	aad := make([]byte, len(headerHash)+8)
	copy(aad, headerHash)
	binary.BigEndian.PutUint64(aad[len(headerHash):], index)
	return aad
}
