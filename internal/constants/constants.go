// Package constants defines the protocol constants and security parameters
// for the DigitLoom artifact formats.
//
// The values here are format constants: changing any of them breaks
// compatibility with previously written containers and envelopes.
package constants

// Container format (DLOOMCH1).
const (
	// ContainerMagic identifies a chunked digit container.
	ContainerMagic = "DLOOMCH1"

	// ContainerVersion is the current container format version.
	ContainerVersion = 1

	// HashName is the hash algorithm tag recorded in container headers.
	// Chunk content hashes are always SHA-256.
	HashName = "sha256"

	// HashSize is the size of a chunk content hash in bytes.
	HashSize = 32

	// MaxHeaderLen bounds the declared header length on read. Headers are
	// small JSON objects; anything larger indicates corruption.
	MaxHeaderLen = 1 << 20

	// MaxChunkPayload bounds the declared payload length of a single chunk
	// on read.
	MaxChunkPayload = 1 << 30
)

// Envelope format (DLOOM1).
const (
	// EnvelopeMagic identifies a single-blob encryption envelope.
	EnvelopeMagic = "DLOOM1"

	// AlgorithmIDAESGCM is the envelope algorithm id for AES-256-GCM.
	AlgorithmIDAESGCM = 1

	// AlgorithmIDChaCha20 is the envelope algorithm id for ChaCha20-Poly1305.
	AlgorithmIDChaCha20 = 2
)

// Algorithm selector names shared by the container header, the envelope
// metadata, and the CLI.
const (
	CompressionNone = "none"
	CompressionGzip = "gzip"

	EncryptionNone     = "none"
	EncryptionAESGCM   = "aes-256-gcm"
	EncryptionChaCha20 = "chacha20-poly1305"
)

// Symmetric encryption parameters. Both supported AEADs use a 256-bit key,
// a 96-bit nonce and a 128-bit authentication tag.
const (
	// KeySize is the size of derived symmetric keys in bytes.
	KeySize = 32

	// SaltSize is the size of the random KDF salt in bytes.
	SaltSize = 16

	// NonceSize is the AEAD nonce size in bytes (96 bits).
	NonceSize = 12

	// TagSize is the AEAD authentication tag size in bytes.
	TagSize = 16
)

// Key derivation parameters (scrypt, RFC 7914).
const (
	// KDFName is the key derivation tag recorded in headers and envelope
	// metadata.
	KDFName = "scrypt"

	// ScryptN is the scrypt CPU/memory cost parameter.
	ScryptN = 1 << 14

	// ScryptR is the scrypt block size parameter.
	ScryptR = 8

	// ScryptP is the scrypt parallelization parameter.
	ScryptP = 1
)

// Precision planning parameters.
const (
	// DefaultGuardDigits is the default decimal-digit slack added to the
	// working precision for ordinary generation.
	DefaultGuardDigits = 30

	// VerifyGuardDigits is the slack used when verification is requested.
	// Verification recomputes independently at the same nominal precision
	// and needs extra headroom.
	VerifyGuardDigits = 60

	// FloatSlackBits is the extra binary precision carried by big.Float
	// values beyond the bits implied by the requested decimal digits.
	FloatSlackBits = 64
)

// Digit base limits and alphabets.
const (
	// MinBase and MaxBase bound the supported output bases.
	MinBase = 2
	MaxBase = 36

	// DigitAlphabet is the standard 36-symbol digit alphabet used for all
	// bases up to 36.
	DigitAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	// HexUpperAlphabet is the uppercase alphabet used by the BBP extractor.
	HexUpperAlphabet = "0123456789ABCDEF"
)

// Chudnovsky series constants.
//
//	1/pi = 12 * sum_{k>=0} (-1)^k (6k)! (A + B k) / ((3k)! (k!)^3 C^(3k+3/2))
const (
	// ChudnovskyA and ChudnovskyB are the linear term coefficients.
	ChudnovskyA = 13591409
	ChudnovskyB = 545140134

	// ChudnovskyC is the series base constant.
	ChudnovskyC = 640320

	// ChudnovskyC3Over24 is C^3 / 24, the q-term factor.
	ChudnovskyC3Over24 = 10939058860032000

	// ChudnovskyDigitsPerTerm is the number of decimal digits gained per
	// series term.
	ChudnovskyDigitsPerTerm = 14.181647462725477

	// ChudnovskyExtraDigits is the extra decimal precision used for the
	// final floating-point evaluation before truncation.
	ChudnovskyExtraDigits = 20

	// ChudnovskyParallelThreshold is the minimum term count before the
	// engine partitions the range across workers. Below it, a single
	// recursive call is faster than the partitioning overhead.
	ChudnovskyParallelThreshold = 2000
)

// BBP extractor parameters.
const (
	// BBPMinPrecisionBits is the floor on the working binary precision.
	BBPMinPrecisionBits = 128

	// BBPEpsilonSlackBits backs the tail-truncation epsilon off from the
	// working precision: tail terms are summed while they exceed
	// 2^(-precision+BBPEpsilonSlackBits).
	BBPEpsilonSlackBits = 16
)
