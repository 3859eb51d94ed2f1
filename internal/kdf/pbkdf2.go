package kdf

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// maxPBKDF2KeyLen is the PBKDF2 output limit for SHA-256: (2^32-1) blocks.
const maxPBKDF2KeyLen = (1<<32 - 1) * sha256.Size

// pbkdf2SHA256 is the single PBKDF2-HMAC-SHA256 primitive behind both the
// PBKDF2 engine and the two passes of the scrypt engine.
func pbkdf2SHA256(op string, secret, salt []byte, iterations, keyLen int) ([]byte, error) {
	if iterations <= 0 {
		return nil, invalidParam(op, "iterations must be positive")
	}
	if keyLen < 0 || uint64(keyLen) > maxPBKDF2KeyLen {
		return nil, invalidParam(op, "key length %d out of range", keyLen)
	}
	if keyLen == 0 {
		return []byte{}, nil
	}

	var out []byte
	err := guard(op, func() error {
		out = pbkdf2.Key(secret, salt, iterations, keyLen, sha256.New)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) != keyLen {
		wipe(out)
		return nil, internal(op, fmt.Sprintf("primitive produced %d bytes, want %d", len(out), keyLen), nil)
	}
	return out, nil
}

// derivePBKDF2 runs the PBKDF2 engine.
func derivePBKDF2(secret, salt []byte, p PBKDF2Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if uint64(p.Iterations) > uint64(maxInt) {
		return nil, invalidParam("pbkdf2", "iterations %d not representable", p.Iterations)
	}
	if uint64(p.KeyLen) > uint64(maxInt) {
		return nil, invalidParam("pbkdf2", "key length %d not representable", p.KeyLen)
	}
	return pbkdf2SHA256("pbkdf2", secret, salt, int(p.Iterations), int(p.KeyLen))
}
