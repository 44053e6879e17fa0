// reader.go implements the read side of the chunk container: one-pass,
// stateful iteration that validates every layer the writer added.
//
// End-of-file handling: hitting EOF exactly on a chunk boundary is the
// clean end of iteration; EOF anywhere inside a chunk is a truncation
// error. A container whose writer died mid-chunk therefore remains
// readable up to its last fully written chunk.
package container

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/crypto"
)

// Reader is a single-owner, one-pass iteration session over a container
// file. Reader is not safe for concurrent use.
type Reader struct {
	file        *os.File
	header      Header
	headerHash  []byte
	key         []byte
	aead        *crypto.AEAD
	compression string
	index       uint64
	closed      bool
}

// NewReader opens path, validates the preamble and header integrity, and
// prepares decryption if the header declares it. A non-empty password is
// required iff the container is encrypted.
func NewReader(path, password string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, dlerrors.NewCodecError("container.NewReader", err)
	}
	r := &Reader{file: file}

	if err := r.readPreamble(password); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readPreamble(password string) error {
	magic := make([]byte, len(constants.ContainerMagic))
	if err := readExact(r.file, magic); err != nil {
		return err
	}
	if string(magic) != constants.ContainerMagic {
		return dlerrors.ErrBadMagic
	}

	var lenBuf [4]byte
	if err := readExact(r.file, lenBuf[:]); err != nil {
		return err
	}
	headerLen := binary.BigEndian.Uint32(lenBuf[:])
	if headerLen == 0 || headerLen > constants.MaxHeaderLen {
		return dlerrors.ErrHeaderInvalid
	}

	headerBytes := make([]byte, headerLen)
	if err := readExact(r.file, headerBytes); err != nil {
		return err
	}
	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return dlerrors.ErrHeaderInvalid
	}
	r.header = header

	headerHash, err := header.verifyHash()
	if err != nil {
		return err
	}
	r.headerHash = headerHash

	if version, err := header.intField(keyVersion); err != nil || version != constants.ContainerVersion {
		return dlerrors.ErrHeaderInvalid
	}
	if hashName, err := header.stringField(keyHash); err != nil || hashName != constants.HashName {
		return dlerrors.ErrHeaderInvalid
	}

	compression, err := header.stringField(keyCompression)
	if err != nil {
		return err
	}
	if compression != constants.CompressionNone && compression != constants.CompressionGzip {
		return dlerrors.ErrUnsupportedCompression
	}
	r.compression = compression

	encryption, err := header.stringField(keyEncryption)
	if err != nil {
		return err
	}
	if encryption == constants.EncryptionNone {
		return nil
	}

	if kdf, err := header.stringField(keyKDF); err != nil || kdf != constants.KDFName {
		return dlerrors.ErrHeaderInvalid
	}
	if nonceLen, err := header.intField(keyNonceLen); err != nil || nonceLen != constants.NonceSize {
		return dlerrors.ErrHeaderInvalid
	}
	salt, err := header.saltBytes()
	if err != nil {
		return err
	}
	key, err := crypto.DeriveKey(password, salt)
	if err != nil {
		return err
	}
	aead, err := crypto.NewAEAD(encryption, key)
	if err != nil {
		crypto.WipeKey(key)
		return err
	}
	r.key = key
	r.aead = aead
	return nil
}

// Next returns the plaintext of the next chunk, or io.EOF at the clean end
// of the container. Truncation inside a chunk surfaces as ErrTruncated.
func (r *Reader) Next() ([]byte, error) {
	if r.closed {
		return nil, dlerrors.NewCodecError("container.Next", os.ErrClosed)
	}

	prologue := framePool.get(chunkPrologueSize)
	defer framePool.put(prologue)
	n, err := io.ReadFull(r.file, prologue)
	if err == io.EOF && n == 0 {
		return nil, io.EOF
	}
	if err != nil {
		return nil, dlerrors.ErrTruncated
	}

	offset := 0
	rawLen := binary.BigEndian.Uint32(prologue[offset:])
	offset += 4
	payloadLen := binary.BigEndian.Uint32(prologue[offset:])
	offset += 4
	if rawLen == 0 || int(rawLen) > constants.MaxChunkPayload ||
		payloadLen == 0 || int(payloadLen) > constants.MaxChunkPayload {
		return nil, dlerrors.ErrInvalidChunkSize
	}
	wantHash := prologue[offset : offset+constants.HashSize]

	var nonce []byte
	if r.aead != nil {
		nonce = make([]byte, constants.NonceSize)
		if err := readExact(r.file, nonce); err != nil {
			return nil, err
		}
	}

	// The ciphertext scratch buffer is pooled only when decryption or
	// decompression will replace it; plain payloads are handed to the caller.
	var payload []byte
	if r.aead != nil || r.compression == constants.CompressionGzip {
		payload = framePool.get(int(payloadLen))
		defer framePool.put(payload)
	} else {
		payload = make([]byte, payloadLen)
	}
	if err := readExact(r.file, payload); err != nil {
		return nil, err
	}

	raw := payload
	if r.aead != nil {
		plaintext, err := r.aead.Open(nonce, payload, chunkAAD(r.headerHash, r.index))
		if err != nil {
			return nil, err
		}
		raw = plaintext
	}
	if r.compression == constants.CompressionGzip {
		decompressed, err := gzipDecompress(raw, int(rawLen))
		if err != nil {
			return nil, err
		}
		raw = decompressed
	}

	if len(raw) != int(rawLen) {
		return nil, dlerrors.ErrChunkLengthMismatch
	}
	gotHash := sha256.Sum256(raw)
	if subtle.ConstantTimeCompare(gotHash[:], wantHash) != 1 {
		return nil, dlerrors.ErrChunkHashMismatch
	}

	r.index++
	return raw, nil
}

// ReadAll drains the remaining chunks and returns their concatenation.
func (r *Reader) ReadAll() ([]byte, error) {
	var all []byte
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, chunk...)
	}
}

// Header returns the validated container header, including caller metadata.
func (r *Reader) Header() Header {
	return r.header
}

// Chunks returns the number of chunks read so far.
func (r *Reader) Chunks() uint64 {
	return r.index
}

// Close releases the file handle and wipes the derived key. Safe to call
// more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	crypto.WipeKey(r.key)
	r.key = nil
	r.aead = nil
	if r.file == nil {
		return nil
	}
	if err := r.file.Close(); err != nil {
		return dlerrors.NewCodecError("container.Close", err)
	}
	return nil
}

// readExact fills buf or fails: any EOF inside buf is a truncation.
func readExact(f io.Reader, buf []byte) error {
	if _, err := io.ReadFull(f, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return dlerrors.ErrTruncated
		}
		return dlerrors.NewCodecError("container.read", err)
	}
	return nil
}

// gzipDecompress inflates raw, refusing to expand past expected+1 bytes so
// a corrupted length field cannot trigger unbounded allocation.
func gzipDecompress(raw []byte, expected int) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, dlerrors.ErrChunkLengthMismatch
	}
	defer zr.Close()

	out := make([]byte, 0, expected)
	limited := io.LimitReader(zr, int64(expected)+1)
	buf := make([]byte, 32*1024)
	for {
		n, err := limited.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, dlerrors.ErrChunkLengthMismatch
		}
	}
}
