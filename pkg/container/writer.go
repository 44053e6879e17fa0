// writer.go implements the write side of the chunk container.
//
// Wire Format:
//
//	+--------+------------+--------+------------------+
//	| Magic  | HeaderLen  | Header | Chunks...        |
//	| 8B     | 4B BE      | JSON   |                  |
//	+--------+------------+--------+------------------+
//
// Chunk Format:
//
//	+---------+-------------+----------+---------+----------+
//	| RawLen  | PayloadLen  | RawHash  | Nonce   | Payload  |
//	| 4B BE   | 4B BE       | 32B      | 12B (*) | Variable |
//	+---------+-------------+----------+---------+----------+
//
// (*) Nonce is present only when the header declares encryption.
//
// The raw hash is sha-256 of the chunk plaintext, taken before compression
// and encryption. When encrypting, the AEAD associated data is the header
// hash followed by the big-endian chunk index, so chunks cannot be
// reordered or spliced across containers without detection.
package container

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/crypto"
)

const chunkPrologueSize = 4 + 4 + constants.HashSize

// Writer is a single-owner append session over a container file. Chunks
// are written strictly in increasing index order and never rewritten.
// Writer is not safe for concurrent use.
type Writer struct {
	file        *os.File
	header      Header
	headerHash  []byte
	key         []byte
	aead        *crypto.AEAD
	compression string
	index       uint64
	closed      bool
}

// NewWriter opens path for writing and emits the container preamble.
// Encryption requires a non-empty password. On error, nothing is left open.
func NewWriter(path string, metadata map[string]string, compression, encryption, password string) (*Writer, error) {
	if compression != constants.CompressionNone && compression != constants.CompressionGzip {
		return nil, dlerrors.ErrUnsupportedCompression
	}
	switch encryption {
	case constants.EncryptionNone, constants.EncryptionAESGCM, constants.EncryptionChaCha20:
	default:
		return nil, dlerrors.ErrUnsupportedEncryption
	}

	w := &Writer{compression: compression}

	if encryption != constants.EncryptionNone {
		if password == "" {
			return nil, dlerrors.ErrPasswordRequired
		}
		salt, err := crypto.NewSalt()
		if err != nil {
			return nil, err
		}
		key, err := crypto.DeriveKey(password, salt)
		if err != nil {
			return nil, err
		}
		aead, err := crypto.NewAEAD(encryption, key)
		if err != nil {
			crypto.WipeKey(key)
			return nil, err
		}
		w.key = key
		w.aead = aead
		w.header = newHeader(metadata, compression, encryption, salt)
	} else {
		w.header = newHeader(metadata, compression, encryption, nil)
	}

	headerHash, err := w.header.seal()
	if err != nil {
		crypto.WipeKey(w.key)
		return nil, err
	}
	w.headerHash = headerHash

	headerBytes, err := marshalHeader(w.header)
	if err != nil {
		crypto.WipeKey(w.key)
		return nil, err
	}
	if len(headerBytes) > constants.MaxHeaderLen {
		crypto.WipeKey(w.key)
		return nil, dlerrors.ErrHeaderInvalid
	}

	file, err := os.Create(path)
	if err != nil {
		crypto.WipeKey(w.key)
		return nil, dlerrors.NewCodecError("container.NewWriter", err)
	}
	w.file = file

	preamble := make([]byte, len(constants.ContainerMagic)+4+len(headerBytes))
	offset := 0
	copy(preamble[offset:], constants.ContainerMagic)
	offset += len(constants.ContainerMagic)
	binary.BigEndian.PutUint32(preamble[offset:], uint32(len(headerBytes)))
	offset += 4
	copy(preamble[offset:], headerBytes)

	if _, err := file.Write(preamble); err != nil {
		w.Close()
		return nil, dlerrors.NewCodecError("container.NewWriter", err)
	}
	return w, nil
}

// Write appends one chunk. Empty input is a no-op and does not consume a
// chunk index.
func (w *Writer) Write(raw []byte) error {
	if w.closed {
		return dlerrors.NewCodecError("container.Write", os.ErrClosed)
	}
	if len(raw) == 0 {
		return nil
	}
	if len(raw) > constants.MaxChunkPayload {
		return dlerrors.ErrInvalidChunkSize
	}

	rawHash := sha256.Sum256(raw)

	payload := raw
	if w.compression == constants.CompressionGzip {
		compressed, err := gzipCompress(raw)
		if err != nil {
			return err
		}
		payload = compressed
	}

	var nonce []byte
	if w.aead != nil {
		fresh, err := crypto.NewNonce()
		if err != nil {
			return err
		}
		nonce = fresh
		sealed, err := w.aead.Seal(nonce, payload, chunkAAD(w.headerHash, w.index))
		if err != nil {
			return err
		}
		payload = sealed
	}
	if len(payload) > constants.MaxChunkPayload {
		return dlerrors.ErrInvalidChunkSize
	}

	frame := framePool.get(chunkPrologueSize + len(nonce) + len(payload))
	defer framePool.put(frame)
	offset := 0
	binary.BigEndian.PutUint32(frame[offset:], uint32(len(raw)))
	offset += 4
	binary.BigEndian.PutUint32(frame[offset:], uint32(len(payload)))
	offset += 4
	copy(frame[offset:], rawHash[:])
	offset += constants.HashSize
	copy(frame[offset:], nonce)
	offset += len(nonce)
	copy(frame[offset:], payload)

	if _, err := w.file.Write(frame); err != nil {
		return dlerrors.NewCodecError("container.Write", err)
	}
	w.index++
	return nil
}

// Chunks returns the number of chunks written so far.
func (w *Writer) Chunks() uint64 {
	return w.index
}

// Close releases the file handle and wipes the derived key. Safe to call
// more than once.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	crypto.WipeKey(w.key)
	w.key = nil
	w.aead = nil
	if w.file == nil {
		return nil
	}
	if err := w.file.Close(); err != nil {
		return dlerrors.NewCodecError("container.Close", err)
	}
	return nil
}

func gzipCompress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return nil, dlerrors.NewCodecError("container.gzip", err)
	}
	if err := zw.Close(); err != nil {
		return nil, dlerrors.NewCodecError("container.gzip", err)
	}
	return buf.Bytes(), nil
}

func marshalHeader(h Header) ([]byte, error) {
	data, err := json.Marshal(map[string]any(h))
	if err != nil {
		return nil, dlerrors.NewCodecError("container.header", err)
	}
	return data, nil
}
