package main

/*
#include <stddef.h>
#include <stdint.h>
*/
import "C"

import "unsafe"

// Go-side entry points into the exported functions, for hosts that link
// the package in-process. A nil or empty slice is passed as NULL; outLen
// and the slice length of out are independent so that a NULL out with a
// nonzero length can be expressed.

func callPBKDF2(secret, salt []byte, iterations uint32, out []byte, outLen uint32, errBuf []byte) int {
	return int(synckdf_pbkdf2_sha256(
		bytePtr(secret), C.size_t(len(secret)),
		bytePtr(salt), C.size_t(len(salt)),
		C.uint32_t(iterations),
		bytePtr(out), C.uint32_t(outLen),
		charPtr(errBuf), C.size_t(len(errBuf)),
	))
}

func callScrypt(secret, salt []byte, n uint64, r, p uint32, out []byte, outLen uint32, errBuf []byte) int {
	return int(synckdf_scrypt(
		bytePtr(secret), C.size_t(len(secret)),
		bytePtr(salt), C.size_t(len(salt)),
		C.uint64_t(n), C.uint32_t(r), C.uint32_t(p),
		bytePtr(out), C.uint32_t(outLen),
		charPtr(errBuf), C.size_t(len(errBuf)),
	))
}

func setMaxMemory(n uint64) {
	synckdf_set_max_memory(C.uint64_t(n))
}

func maxMemory() uint64 {
	return uint64(synckdf_max_memory())
}

func bytePtr(b []byte) *C.uint8_t {
	if len(b) == 0 {
		return nil
	}
	return (*C.uint8_t)(unsafe.Pointer(&b[0]))
}

func charPtr(b []byte) *C.char {
	if len(b) == 0 {
		return nil
	}
	return (*C.char)(unsafe.Pointer(&b[0]))
}
