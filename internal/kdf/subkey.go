package kdf

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

const maxSubkeyLen = 255 * sha256.Size

// DeriveSubkey expands a derived key into a purpose-bound subkey with
// HKDF-SHA256, using salt and info as the HKDF salt and context.
func DeriveSubkey(key, salt []byte, info string, length uint32) ([]byte, error) {
	if length > maxSubkeyLen {
		return nil, invalidParam("hkdf", "subkey length %d exceeds %d", length, maxSubkeyLen)
	}
	if length == 0 {
		return []byte{}, nil
	}
	r := hkdf.New(sha256.New, key, salt, []byte(info))
	subkey := make([]byte, length)
	if _, err := io.ReadFull(r, subkey); err != nil {
		wipe(subkey)
		return nil, internal("hkdf", "deriving subkey for "+info, err)
	}
	return subkey, nil
}
