package main

import (
	"os"
	"unsafe"

	"github.com/dustin/go-humanize"

	"github.com/mozilla-services/android-sync/internal/config"
	"github.com/mozilla-services/android-sync/internal/kdf"
)

// maxBufferLen bounds caller-supplied lengths to what a Go slice can hold on
// every supported platform.
const maxBufferLen = 1<<31 - 1

// maxMemoryFromEnv reads the ceiling from SYNCKDF_MAX_MEMORY. Zero, which
// selects the default, is returned when it is unset or unparsable.
func maxMemoryFromEnv() uint64 {
	v := os.Getenv(config.EnvMaxMemory)
	if v == "" {
		return 0
	}
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return 0
	}
	return n
}

func nullBuffer(name string) error {
	return &kdf.Error{Kind: kdf.KindInvalidParameter, Op: "boundary", Msg: name + " is NULL but has a nonzero length"}
}

// cBytes views n bytes of C memory at p without copying. A NULL pointer is
// only accepted with a zero length.
func cBytes(p unsafe.Pointer, n uint64, name string) ([]byte, error) {
	if p == nil {
		if n != 0 {
			return nil, nullBuffer(name)
		}
		return nil, nil
	}
	if n > maxBufferLen {
		return nil, &kdf.Error{Kind: kdf.KindInvalidParameter, Op: "boundary", Msg: name + " length is not representable"}
	}
	return unsafe.Slice((*byte)(p), int(n)), nil
}

// fillMessage copies msg into dst as a NUL-terminated string, truncating it
// to fit. An empty dst is left alone.
func fillMessage(dst []byte, msg string) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst[:len(dst)-1], msg)
	dst[n] = 0
}

func wipe(b []byte) {
	clear(b)
}
