package kdf

import "fmt"

const maxInt = int(^uint(0) >> 1)

// allocate returns a zeroed buffer of n bytes. Lengths that do not fit in an
// int, and allocations the runtime rejects with a panic, are reported as
// ResourceExhausted. An allocation the OS cannot back is fatal in Go, so
// callers must bound n before calling.
func allocate(op string, n uint64) (buf []byte, err error) {
	if n > uint64(maxInt) {
		return nil, exhausted(op, "insufficient memory", fmt.Errorf("%d bytes is not addressable", n))
	}
	defer func() {
		if r := recover(); r != nil {
			buf, err = nil, exhausted(op, "insufficient memory", fmt.Errorf("%v", r))
		}
	}()
	return make([]byte, int(n)), nil
}

// guard converts a panic raised while running fn into an InternalFailure, so
// that a faulting primitive never produces a success paired with a partially
// written buffer.
func guard(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = internal(op, "primitive fault", fmt.Errorf("%v", r))
		}
	}()
	return fn()
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
