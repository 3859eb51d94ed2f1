// Package kdf derives symmetric keys from passwords with PBKDF2-HMAC-SHA256
// or scrypt.
//
// Every entry point validates its parameters before doing expensive work and
// never mutates caller buffers. Failures are *Error values whose Kind tells
// bad parameters apart from memory exhaustion; no partial key is ever
// returned.
package kdf

import (
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultMaxMemory is the scrypt working memory ceiling used when Options
// does not set one.
const DefaultMaxMemory = 1 << 30 // 1 GiB

// Options configures a Deriver.
type Options struct {
	// MaxMemory bounds scrypt working memory in bytes. Zero selects
	// DefaultMaxMemory.
	MaxMemory uint64
	Logger    *slog.Logger
}

// Deriver is the boundary between callers and the derivation engines. It
// holds no mutable state besides a live-view counter, so one Deriver may be
// shared by any number of goroutines.
type Deriver struct {
	maxMemory uint64
	log       *slog.Logger
	live      atomic.Int64
}

// New returns a Deriver configured by opts.
func New(opts Options) *Deriver {
	d := &Deriver{
		maxMemory: opts.MaxMemory,
		log:       opts.Logger,
	}
	if d.maxMemory == 0 {
		d.maxMemory = DefaultMaxMemory
	}
	if d.log == nil {
		d.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return d
}

// MaxMemory returns the scrypt working memory ceiling in bytes.
func (d *Deriver) MaxMemory() uint64 {
	return d.maxMemory
}

// Derive derives a key of params.KeyLength() bytes from secret and salt.
// A nil secret or salt is treated as empty.
func (d *Deriver) Derive(secret, salt []byte, params Params) (key []byte, err error) {
	start := time.Now()
	params, err = normalize(params)
	defer func() {
		d.logOutcome(params, err, time.Since(start))
	}()
	if err != nil {
		return nil, err
	}

	sv, releaseSecret := d.borrow(secret)
	defer releaseSecret()
	tv, releaseSalt := d.borrow(salt)
	defer releaseSalt()

	raw, err := d.dispatch(sv.b, tv.b, params)
	if err != nil {
		return nil, err
	}
	defer wipe(raw)

	want := params.KeyLength()
	if uint64(len(raw)) != uint64(want) {
		return nil, internal("derive", "engine returned a key of the wrong length", nil)
	}
	out, err := allocate("derive", uint64(want))
	if err != nil {
		return nil, err
	}
	copy(out, raw)
	return out, nil
}

// logOutcome records one Derive call. params is nil when they were rejected
// before dispatch.
func (d *Deriver) logOutcome(params Params, err error, elapsed time.Duration) {
	algorithm, summary := Algorithm("none"), "none"
	if params != nil {
		algorithm, summary = params.Algorithm(), params.String()
	}
	if err != nil {
		d.log.Warn("key derivation failed",
			"algorithm", algorithm,
			"params", summary,
			"kind", KindOf(err).String(),
			"error", err)
		return
	}
	d.log.Debug("derived key",
		"algorithm", algorithm,
		"params", summary,
		"duration", elapsed)
}

// normalize dereferences pointer variants so that dispatch and logging only
// deal with values.
func normalize(params Params) (Params, error) {
	switch p := params.(type) {
	case nil:
		return nil, invalidParam("derive", "parameters are required")
	case *PBKDF2Params:
		if p == nil {
			return nil, invalidParam("derive", "parameters are required")
		}
		return *p, nil
	case *ScryptParams:
		if p == nil {
			return nil, invalidParam("derive", "parameters are required")
		}
		return *p, nil
	}
	return params, nil
}

func (d *Deriver) dispatch(secret, salt []byte, params Params) ([]byte, error) {
	switch p := params.(type) {
	case PBKDF2Params:
		return derivePBKDF2(secret, salt, p)
	case ScryptParams:
		return deriveScrypt(secret, salt, p, d.maxMemory)
	default:
		return nil, invalidParam("derive", "unsupported parameters %T", params)
	}
}

// Pbkdf2Sha256 derives keyLen bytes with PBKDF2-HMAC-SHA256.
func (d *Deriver) Pbkdf2Sha256(secret, salt []byte, iterations, keyLen uint32) ([]byte, error) {
	return d.Derive(secret, salt, PBKDF2Params{Iterations: iterations, KeyLen: keyLen})
}

// Scrypt derives keyLen bytes with scrypt(N=n, r, p).
func (d *Deriver) Scrypt(secret, salt []byte, n uint64, r, p, keyLen uint32) ([]byte, error) {
	return d.Derive(secret, salt, ScryptParams{N: n, R: r, P: p, KeyLen: keyLen})
}

// Derive derives a key with a Deriver using default options.
func Derive(secret, salt []byte, params Params) ([]byte, error) {
	return New(Options{}).Derive(secret, salt, params)
}

// Pbkdf2Sha256 derives keyLen bytes with PBKDF2-HMAC-SHA256 and default options.
func Pbkdf2Sha256(secret, salt []byte, iterations, keyLen uint32) ([]byte, error) {
	return New(Options{}).Pbkdf2Sha256(secret, salt, iterations, keyLen)
}

// Scrypt derives keyLen bytes with scrypt and default options.
func Scrypt(secret, salt []byte, n uint64, r, p, keyLen uint32) ([]byte, error) {
	return New(Options{}).Scrypt(secret, salt, n, r, p, keyLen)
}
