// kdf.go implements password-to-key derivation using scrypt (RFC 7914),
// a memory-hard KDF that resists GPU and ASIC brute-force search.
//
// The parameters (N=2^14, r=8, p=1, 32-byte output) are format constants:
// they are recorded in artifact headers only by the tag "scrypt", so every
// reader must use the same cost parameters to re-derive the key.
package crypto

import (
	"golang.org/x/crypto/scrypt"

	"github.com/digitloom/digitloom/internal/constants"
	dlerrors "github.com/digitloom/digitloom/internal/errors"
)

// DeriveKey derives a 32-byte symmetric key from a password and salt.
// The password must be non-empty and the salt 16 bytes.
func DeriveKey(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, dlerrors.ErrPasswordRequired
	}
	if len(salt) != constants.SaltSize {
		return nil, dlerrors.NewCodecError("crypto.DeriveKey", dlerrors.ErrHeaderInvalid)
	}
	key, err := scrypt.Key([]byte(password), salt,
		constants.ScryptN, constants.ScryptR, constants.ScryptP, constants.KeySize)
	if err != nil {
		return nil, dlerrors.NewCodecError("crypto.DeriveKey", err)
	}
	return key, nil
}

// WipeKey zeroes key material in place. Derived keys are scoped to a
// single session or call and callers wipe them when done.
func WipeKey(key []byte) {
	for i := range key {
		key[i] = 0
	}
}
