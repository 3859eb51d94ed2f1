package kdf

import (
	"fmt"
	"math/bits"
)

// Algorithm names a derivation function.
type Algorithm string

const (
	AlgPBKDF2SHA256 Algorithm = "pbkdf2-sha256"
	AlgScrypt       Algorithm = "scrypt"
)

// Params selects a derivation function and its cost parameters.
// The set of implementations is closed: PBKDF2Params and ScryptParams.
type Params interface {
	Algorithm() Algorithm
	KeyLength() uint32
	String() string
	isParams()
}

// PBKDF2Params configures PBKDF2-HMAC-SHA256.
type PBKDF2Params struct {
	Iterations uint32
	KeyLen     uint32
}

func (PBKDF2Params) Algorithm() Algorithm { return AlgPBKDF2SHA256 }
func (p PBKDF2Params) KeyLength() uint32 { return p.KeyLen }
func (PBKDF2Params) isParams()           {}

func (p PBKDF2Params) String() string {
	return fmt.Sprintf("pbkdf2-sha256(iterations=%d, len=%d)", p.Iterations, p.KeyLen)
}

// ScryptParams configures scrypt. N must be a power of two greater than 1.
type ScryptParams struct {
	N      uint64
	R      uint32
	P      uint32
	KeyLen uint32
}

func (ScryptParams) Algorithm() Algorithm { return AlgScrypt }
func (p ScryptParams) KeyLength() uint32 { return p.KeyLen }
func (ScryptParams) isParams()           {}

func (p ScryptParams) String() string {
	return fmt.Sprintf("scrypt(N=%d, r=%d, p=%d, len=%d)", p.N, p.R, p.P, p.KeyLen)
}

// RequiredMemory estimates the working memory of one scrypt call in bytes:
// the lookup table estimate 128*N*r*p, the p expanded blocks (128*r*p) and
// the mixing scratch (256*r). ok is false if the estimate overflows uint64.
func (p ScryptParams) RequiredMemory() (n uint64, ok bool) {
	block := 128 * uint64(p.R) // r is 32-bit, cannot overflow
	hi, table := bits.Mul64(block, p.N)
	if hi != 0 {
		return 0, false
	}
	hi, table = bits.Mul64(table, uint64(p.P))
	if hi != 0 {
		return 0, false
	}
	blocks := block * uint64(p.P)
	total, carry := bits.Add64(table, blocks, 0)
	if carry != 0 {
		return 0, false
	}
	total, carry = bits.Add64(total, 2*block, 0)
	if carry != 0 {
		return 0, false
	}
	return total, true
}

// Validate checks the parameters that do not depend on a memory ceiling.
func (p ScryptParams) Validate() error {
	if p.N <= 1 || p.N&(p.N-1) != 0 {
		return invalidParam("scrypt", "N must be a power of two greater than 1")
	}
	if p.R == 0 {
		return invalidParam("scrypt", "r must be positive")
	}
	if p.P == 0 {
		return invalidParam("scrypt", "p must be positive")
	}
	if uint64(p.R)*uint64(p.P) >= 1<<30 {
		return invalidParam("scrypt", "r*p must be less than 2^30")
	}
	return nil
}

// Validate checks the PBKDF2 parameters.
func (p PBKDF2Params) Validate() error {
	if p.Iterations == 0 {
		return invalidParam("pbkdf2", "iterations must be positive")
	}
	return nil
}
