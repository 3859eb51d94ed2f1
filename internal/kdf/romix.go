package kdf

import (
	"encoding/binary"

	"golang.org/x/crypto/salsa20/salsa"
)

const salsaBlock = 64

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// blockMix applies BlockMix_{Salsa20/8, r} to b (2r 64-byte sub-blocks) in
// place, using y (same size as b) as scratch. Even outputs land in the first
// half of b and odd outputs in the second half.
func blockMix(b, y []byte, r int) {
	var x [salsaBlock]byte
	copy(x[:], b[(2*r-1)*salsaBlock:])

	for i := 0; i < 2*r; i++ {
		xorInto(x[:], b[i*salsaBlock:(i+1)*salsaBlock])
		salsa.Core208(&x, &x)
		copy(y[i*salsaBlock:], x[:])
	}
	for i := 0; i < r; i++ {
		copy(b[i*salsaBlock:], y[2*i*salsaBlock:(2*i+1)*salsaBlock])
		copy(b[(r+i)*salsaBlock:], y[(2*i+1)*salsaBlock:(2*i+2)*salsaBlock])
	}
}

// integerify reads the first eight bytes of the last 64-byte sub-block of x
// as a little-endian integer.
func integerify(x []byte, r int) uint64 {
	return binary.LittleEndian.Uint64(x[(2*r-1)*salsaBlock:])
}

// roMix runs the sequential memory-hard mix over one 128*r byte block b.
// v must hold n*128*r bytes and xy 256*r bytes; both are caller-owned
// scratch and are left dirty.
func roMix(b []byte, r, n int, v, xy []byte) {
	size := 128 * r
	x, y := xy[:size], xy[size:2*size]
	copy(x, b[:size])

	for i := 0; i < n; i++ {
		copy(v[i*size:(i+1)*size], x)
		blockMix(x, y, r)
	}
	mask := uint64(n - 1)
	for i := 0; i < n; i++ {
		j := int(integerify(x, r) & mask)
		xorInto(x, v[j*size:(j+1)*size])
		blockMix(x, y, r)
	}
	copy(b[:size], x)
}
