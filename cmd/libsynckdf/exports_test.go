package main

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mozilla-services/android-sync/internal/config"
	"github.com/mozilla-services/android-sync/internal/kdf"
)

// untouched fills a fresh output buffer with a marker byte.
func untouched(n int) []byte {
	return bytes.Repeat([]byte{0xa5}, n)
}

// cString returns the NUL-terminated prefix of b.
func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

func TestPBKDF2Export(t *testing.T) {
	tests := []struct {
		name       string
		secret     []byte
		salt       []byte
		iterations uint32
		outLen     uint32
		want       string
		status     int
		message    string
	}{
		{
			name:       "one iteration",
			secret:     []byte("password"),
			salt:       []byte("salt"),
			iterations: 1,
			outLen:     32,
			want:       "120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b",
		},
		{
			name:       "4096 iterations",
			secret:     []byte("password"),
			salt:       []byte("salt"),
			iterations: 4096,
			outLen:     32,
			want:       "c5e478d59288c841aa530db6845c4c8d962893a001ce4e11a4963873aa98134a",
		},
		{
			name:       "zero iterations",
			secret:     []byte("password"),
			salt:       []byte("salt"),
			iterations: 0,
			outLen:     32,
			status:     kdf.StatusInvalidParameter,
			message:    "iterations must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := untouched(int(tt.outLen))
			errBuf := make([]byte, 128)

			status := callPBKDF2(tt.secret, tt.salt, tt.iterations, out, tt.outLen, errBuf)
			require.Equal(t, tt.status, status)
			if tt.status != kdf.StatusOK {
				assert.Equal(t, untouched(int(tt.outLen)), out)
				assert.Contains(t, cString(errBuf), tt.message)
				return
			}
			assert.Equal(t, tt.want, hex.EncodeToString(out))
			assert.Empty(t, cString(errBuf))
		})
	}
}

func TestScryptExport(t *testing.T) {
	tests := []struct {
		name    string
		secret  []byte
		salt    []byte
		n       uint64
		r, p    uint32
		outLen  uint32
		want    string
		status  int
		message string
	}{
		{
			name:   "empty inputs",
			n:      16,
			r:      1,
			p:      1,
			outLen: 64,
			want: "77d6576238657b203b19ca42c18a0497f16b4844e3074ae8dfdffa3fede21442" +
				"fcd0069ded0948f8326a753a0fc81f17e8d3e0fb2e0d3628cf35e20c38d18906",
		},
		{
			name:   "password and NaCl",
			secret: []byte("password"),
			salt:   []byte("NaCl"),
			n:      1024,
			r:      8,
			p:      16,
			outLen: 64,
			want: "fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b373162" +
				"2eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640",
		},
		{
			name:    "N not a power of two",
			secret:  []byte("pw"),
			n:       15,
			r:       1,
			p:       1,
			outLen:  32,
			status:  kdf.StatusInvalidParameter,
			message: "N must be a power of two greater than 1",
		},
		{
			name:    "r is zero",
			secret:  []byte("pw"),
			n:       16,
			r:       0,
			p:       1,
			outLen:  32,
			status:  kdf.StatusInvalidParameter,
			message: "r must be positive",
		},
		{
			name:    "over the memory ceiling",
			secret:  []byte("pw"),
			n:       1 << 40,
			r:       8,
			p:       1,
			outLen:  32,
			status:  kdf.StatusResourceExhausted,
			message: "resource exhausted",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if testing.Short() && tt.p > 1 {
				t.Skip("slow vector")
			}
			out := untouched(int(tt.outLen))
			errBuf := make([]byte, 128)

			status := callScrypt(tt.secret, tt.salt, tt.n, tt.r, tt.p, out, tt.outLen, errBuf)
			require.Equal(t, tt.status, status)
			if tt.status != kdf.StatusOK {
				assert.Equal(t, untouched(int(tt.outLen)), out)
				assert.Contains(t, cString(errBuf), tt.message)
				return
			}
			assert.Equal(t, tt.want, hex.EncodeToString(out))
			assert.Empty(t, cString(errBuf))
		})
	}
}

func TestExport_NullOutWithLength(t *testing.T) {
	errBuf := make([]byte, 64)
	status := callPBKDF2([]byte("pw"), []byte("salt"), 1, nil, 32, errBuf)
	assert.Equal(t, kdf.StatusInvalidParameter, status)
	assert.Contains(t, cString(errBuf), "out is NULL")

	errBuf = make([]byte, 64)
	status = callScrypt([]byte("pw"), []byte("salt"), 16, 1, 1, nil, 32, errBuf)
	assert.Equal(t, kdf.StatusInvalidParameter, status)
	assert.Contains(t, cString(errBuf), "out is NULL")
}

func TestExport_ZeroLengthOutput(t *testing.T) {
	errBuf := make([]byte, 64)
	assert.Equal(t, kdf.StatusOK, callPBKDF2([]byte("pw"), []byte("salt"), 1, nil, 0, errBuf))
	assert.Empty(t, cString(errBuf))

	assert.Equal(t, kdf.StatusOK, callScrypt([]byte("pw"), []byte("salt"), 16, 1, 1, nil, 0, errBuf))

	// Parameters are still validated when nothing is requested.
	assert.Equal(t, kdf.StatusInvalidParameter, callScrypt([]byte("pw"), []byte("salt"), 15, 1, 1, nil, 0, errBuf))
	assert.Equal(t, kdf.StatusInvalidParameter, callPBKDF2([]byte("pw"), []byte("salt"), 0, nil, 0, errBuf))
}

func TestExport_ErrorMessageTruncated(t *testing.T) {
	out := untouched(32)
	errBuf := bytes.Repeat([]byte{0xff}, 8)

	status := callScrypt([]byte("pw"), nil, 15, 1, 1, out, 32, errBuf)
	assert.Equal(t, kdf.StatusInvalidParameter, status)
	assert.Equal(t, []byte("scrypt:\x00"), errBuf)

	// A missing error buffer is tolerated.
	assert.Equal(t, kdf.StatusInvalidParameter, callScrypt([]byte("pw"), nil, 15, 1, 1, out, 32, nil))
	assert.Equal(t, untouched(32), out)
}

func TestExport_SetMaxMemory(t *testing.T) {
	t.Cleanup(func() { setMaxMemory(0) })

	setMaxMemory(1 << 20)
	assert.Equal(t, uint64(1<<20), maxMemory())

	out := untouched(32)
	errBuf := make([]byte, 128)
	status := callScrypt([]byte("pw"), []byte("salt"), 1<<14, 8, 1, out, 32, errBuf)
	assert.Equal(t, kdf.StatusResourceExhausted, status)
	assert.Contains(t, cString(errBuf), "limit is 1.0 MiB")
	assert.Equal(t, untouched(32), out)

	setMaxMemory(0)
	assert.Equal(t, uint64(kdf.DefaultMaxMemory), maxMemory())
	assert.Equal(t, kdf.StatusOK, callScrypt([]byte("pw"), []byte("salt"), 1<<14, 8, 1, out, 32, errBuf))
}

func TestMaxMemoryFromEnv(t *testing.T) {
	t.Setenv(config.EnvMaxMemory, "")
	assert.Zero(t, maxMemoryFromEnv())

	t.Setenv(config.EnvMaxMemory, "256 MiB")
	assert.Equal(t, uint64(256<<20), maxMemoryFromEnv())

	t.Setenv(config.EnvMaxMemory, "lots")
	assert.Zero(t, maxMemoryFromEnv())
}
