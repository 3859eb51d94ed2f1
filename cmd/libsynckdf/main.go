// Command libsynckdf exports the key derivation core through a C ABI for
// hosts running in another runtime. Build it with
//
//	go build -buildmode=c-shared -o libsynckdf.so ./cmd/libsynckdf
//
// Every function returns a result code (0 ok, 1 invalid parameter,
// 2 resource exhausted, 3 internal failure). On failure a NUL-terminated
// message is written to err_buf, truncated to err_len bytes, and out is left
// untouched.
//
// The scrypt memory ceiling starts at SYNCKDF_MAX_MEMORY (for example
// "256 MiB") or the 1 GiB default, and can be changed at runtime with
// synckdf_set_max_memory.
package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import (
	"sync/atomic"
	"unsafe"

	"github.com/mozilla-services/android-sync/internal/kdf"
)

var deriver atomic.Pointer[kdf.Deriver]

func init() {
	deriver.Store(kdf.New(kdf.Options{MaxMemory: maxMemoryFromEnv()}))
}

// synckdf_set_max_memory replaces the scrypt memory ceiling for subsequent
// calls. Zero restores the default. Calls already running keep the ceiling
// they started with.
//
//export synckdf_set_max_memory
func synckdf_set_max_memory(maxMemory C.uint64_t) {
	deriver.Store(kdf.New(kdf.Options{MaxMemory: uint64(maxMemory)}))
}

// synckdf_max_memory returns the scrypt memory ceiling in bytes.
//
//export synckdf_max_memory
func synckdf_max_memory() C.uint64_t {
	return C.uint64_t(deriver.Load().MaxMemory())
}

//export synckdf_pbkdf2_sha256
func synckdf_pbkdf2_sha256(
	secret *C.uint8_t, secretLen C.size_t,
	salt *C.uint8_t, saltLen C.size_t,
	iterations C.uint32_t,
	out *C.uint8_t, outLen C.uint32_t,
	errBuf *C.char, errLen C.size_t,
) C.int {
	in, err := borrowInputs(secret, secretLen, salt, saltLen, out, outLen)
	if err != nil {
		return finish(nil, out, outLen, errBuf, errLen, err)
	}
	key, err := deriver.Load().Pbkdf2Sha256(in.secret, in.salt, uint32(iterations), uint32(outLen))
	return finish(key, out, outLen, errBuf, errLen, err)
}

//export synckdf_scrypt
func synckdf_scrypt(
	secret *C.uint8_t, secretLen C.size_t,
	salt *C.uint8_t, saltLen C.size_t,
	n C.uint64_t, r C.uint32_t, p C.uint32_t,
	out *C.uint8_t, outLen C.uint32_t,
	errBuf *C.char, errLen C.size_t,
) C.int {
	in, err := borrowInputs(secret, secretLen, salt, saltLen, out, outLen)
	if err != nil {
		return finish(nil, out, outLen, errBuf, errLen, err)
	}
	key, err := deriver.Load().Scrypt(in.secret, in.salt, uint64(n), uint32(r), uint32(p), uint32(outLen))
	return finish(key, out, outLen, errBuf, errLen, err)
}

type inputs struct {
	secret, salt []byte
}

// borrowInputs views the caller's buffers in place. The views are only used
// for the duration of the exported call.
func borrowInputs(secret *C.uint8_t, secretLen C.size_t, salt *C.uint8_t, saltLen C.size_t, out *C.uint8_t, outLen C.uint32_t) (inputs, error) {
	var in inputs
	var err error
	if in.secret, err = cBytes(unsafe.Pointer(secret), uint64(secretLen), "secret"); err != nil {
		return inputs{}, err
	}
	if in.salt, err = cBytes(unsafe.Pointer(salt), uint64(saltLen), "salt"); err != nil {
		return inputs{}, err
	}
	if out == nil && outLen != 0 {
		return inputs{}, nullBuffer("out")
	}
	return in, nil
}

func finish(key []byte, out *C.uint8_t, outLen C.uint32_t, errBuf *C.char, errLen C.size_t, err error) C.int {
	msg := ""
	if err == nil && uint64(len(key)) != uint64(outLen) {
		err = &kdf.Error{Kind: kdf.KindInternalFailure, Op: "boundary", Msg: "derived key has the wrong length"}
	}
	if err != nil {
		msg = err.Error()
	} else if outLen != 0 {
		copy(unsafe.Slice((*byte)(unsafe.Pointer(out)), int(outLen)), key)
	}
	wipe(key)
	if errBuf != nil && errLen != 0 {
		fillMessage(unsafe.Slice((*byte)(unsafe.Pointer(errBuf)), int(min(uint64(errLen), maxBufferLen))), msg)
	}
	return C.int(kdf.Status(err))
}

func main() {}
