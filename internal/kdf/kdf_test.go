package kdf

import (
	"bytes"
	"encoding/hex"
	"errors"
	"log/slog"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/errgroup"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestPbkdf2Sha256_KnownVectors(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		salt       string
		iterations uint32
		keyLen     uint32
		want       string
	}{
		{"one iteration", "password", "salt", 1, 32,
			"120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b"},
		{"two iterations", "password", "salt", 2, 32,
			"ae4d0c95af6b46d32d0adff928f06dd02a303f8ef3c251dfd6e2d85a95474c43"},
		{"4096 iterations", "password", "salt", 4096, 32,
			"c5e478d59288c841aa530db6845c4c8d962893a001ce4e11a4963873aa98134a"},
		{"truncated", "password", "salt", 1, 20,
			"120fb6cffcf8b32c43e7225256c4f837a86548c9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Pbkdf2Sha256([]byte(tt.secret), []byte(tt.salt), tt.iterations, tt.keyLen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, hex.EncodeToString(got))
		})
	}
}

func TestPbkdf2Sha256_MultiBlockOutput(t *testing.T) {
	// 40 bytes spans two SHA-256 blocks; the first block must equal the
	// 32-byte derivation.
	long, err := Pbkdf2Sha256([]byte("password"), []byte("salt"), 2, 40)
	require.NoError(t, err)
	short, err := Pbkdf2Sha256([]byte("password"), []byte("salt"), 2, 32)
	require.NoError(t, err)

	require.Len(t, long, 40)
	assert.Equal(t, short, long[:32])
}

func TestPbkdf2Sha256_ZeroIterationsRejected(t *testing.T) {
	key, err := Pbkdf2Sha256([]byte("password"), []byte("salt"), 0, 32)
	assert.Nil(t, key)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.Contains(t, err.Error(), "iterations must be positive")
}

func TestScrypt_KnownVectors(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		salt   string
		n      uint64
		r, p   uint32
		want   string
	}{
		{"empty inputs", "", "", 16, 1, 1,
			"77d6576238657b203b19ca42c18a0497f16b4844e3074ae8dfdffa3fede21442" +
				"fcd0069ded0948f8326a753a0fc81f17e8d3e0fb2e0d3628cf35e20c38d18906"},
		{"password NaCl", "password", "NaCl", 1024, 8, 16,
			"fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b373162" +
				"2eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.n > 16 && testing.Short() {
				t.Skip("skipping expensive vector in short mode")
			}
			got, err := Scrypt([]byte(tt.secret), []byte(tt.salt), tt.n, tt.r, tt.p, 64)
			require.NoError(t, err)
			assert.Equal(t, unhex(t, tt.want), got)
		})
	}
}

func TestScrypt_MatchesReferenceImplementation(t *testing.T) {
	cases := []ScryptParams{
		{N: 2, R: 1, P: 1, KeyLen: 1},
		{N: 16, R: 2, P: 3, KeyLen: 33},
		{N: 64, R: 8, P: 1, KeyLen: 32},
		{N: 256, R: 1, P: 4, KeyLen: 100},
	}
	secret := []byte("pässwörd")
	salt := []byte("identity.mozilla.com/picl/v1/scrypt")
	for _, p := range cases {
		t.Run(p.String(), func(t *testing.T) {
			want, err := scrypt.Key(secret, salt, int(p.N), int(p.R), int(p.P), int(p.KeyLen))
			require.NoError(t, err)

			got, err := Derive(secret, salt, p)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestScrypt_InvalidParameters(t *testing.T) {
	tests := []struct {
		name    string
		params  ScryptParams
		message string
	}{
		{"N not a power of two", ScryptParams{N: 15, R: 1, P: 1, KeyLen: 32}, "N must be a power of two greater than 1"},
		{"N zero", ScryptParams{N: 0, R: 1, P: 1, KeyLen: 32}, "N must be a power of two greater than 1"},
		{"N one", ScryptParams{N: 1, R: 1, P: 1, KeyLen: 32}, "N must be a power of two greater than 1"},
		{"r zero", ScryptParams{N: 16, R: 0, P: 1, KeyLen: 32}, "r must be positive"},
		{"p zero", ScryptParams{N: 16, R: 1, P: 0, KeyLen: 32}, "p must be positive"},
		{"r*p too large", ScryptParams{N: 16, R: 1 << 15, P: 1 << 15, KeyLen: 32}, "r*p must be less than 2^30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := Derive([]byte("pw"), []byte("salt"), tt.params)
			assert.Nil(t, key)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Equal(t, KindInvalidParameter, KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestScrypt_ZeroLengthStillValidated(t *testing.T) {
	_, err := Scrypt(nil, nil, 15, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestScrypt_MemoryCeiling(t *testing.T) {
	d := New(Options{MaxMemory: 1 << 20})

	// 128 * 16384 * 8 = 16 MiB of table alone.
	key, err := d.Scrypt([]byte("pw"), []byte("salt"), 1<<14, 8, 1, 32)
	assert.Nil(t, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResourceExhausted)
	assert.Contains(t, err.Error(), "insufficient memory")

	// A small call under the same ceiling still works.
	key, err = d.Scrypt([]byte("pw"), []byte("salt"), 16, 1, 1, 32)
	require.NoError(t, err)
	assert.Len(t, key, 32)
}

func TestScrypt_MemoryOverflow(t *testing.T) {
	d := New(Options{MaxMemory: ^uint64(0)})
	key, err := d.Scrypt([]byte("pw"), []byte("salt"), 1<<62, 1<<10, 1<<10, 32)
	assert.Nil(t, key)
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestScrypt_UnaddressableMemory(t *testing.T) {
	if strconv.IntSize != 64 {
		t.Skip("64-bit only")
	}
	d := New(Options{MaxMemory: ^uint64(0)})
	// 128 * 2^56 bytes does not fit in an int.
	_, err := d.Scrypt([]byte("pw"), []byte("salt"), 1<<56, 1, 1, 32)
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestRequiredMemory(t *testing.T) {
	p := ScryptParams{N: 1 << 16, R: 8, P: 1, KeyLen: 32}
	need, ok := p.RequiredMemory()
	require.True(t, ok)
	assert.Equal(t, uint64(128*(1<<16)*8+128*8+256*8), need)

	_, ok = ScryptParams{N: 1 << 63, R: 8, P: 1}.RequiredMemory()
	assert.False(t, ok)
}

func TestZeroLengthOutput(t *testing.T) {
	key, err := Pbkdf2Sha256([]byte("password"), []byte("salt"), 1, 0)
	require.NoError(t, err)
	assert.NotNil(t, key)
	assert.Empty(t, key)

	key, err = Scrypt([]byte("password"), []byte("salt"), 16, 1, 1, 0)
	require.NoError(t, err)
	assert.NotNil(t, key)
	assert.Empty(t, key)
}

func TestOutputLengthMatchesRequest(t *testing.T) {
	for _, n := range []uint32{1, 16, 31, 32, 33, 64, 65, 257} {
		key, err := Pbkdf2Sha256([]byte("pw"), []byte("salt"), 3, n)
		require.NoError(t, err)
		assert.Len(t, key, int(n))

		key, err = Scrypt([]byte("pw"), []byte("salt"), 4, 1, 2, n)
		require.NoError(t, err)
		assert.Len(t, key, int(n))
	}
}

func TestDerive_NilAndPointerParams(t *testing.T) {
	_, err := Derive([]byte("pw"), []byte("salt"), nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	var nilParams *ScryptParams
	_, err = Derive([]byte("pw"), []byte("salt"), nilParams)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	byValue, err := Derive([]byte("pw"), []byte("salt"), PBKDF2Params{Iterations: 2, KeyLen: 32})
	require.NoError(t, err)
	byPointer, err := Derive([]byte("pw"), []byte("salt"), &PBKDF2Params{Iterations: 2, KeyLen: 32})
	require.NoError(t, err)
	assert.Equal(t, byValue, byPointer)
}

func TestDerive_NilBuffersAreEmpty(t *testing.T) {
	withNil, err := Scrypt(nil, nil, 16, 1, 1, 64)
	require.NoError(t, err)
	withEmpty, err := Scrypt([]byte{}, []byte{}, 16, 1, 1, 64)
	require.NoError(t, err)
	assert.Equal(t, withEmpty, withNil)
}

func TestDerive_CallerBuffersUnchanged(t *testing.T) {
	secret := []byte("correct horse battery staple")
	salt := []byte("0123456789abcdef")
	secretCopy := bytes.Clone(secret)
	saltCopy := bytes.Clone(salt)

	_, err := Scrypt(secret, salt, 32, 2, 2, 48)
	require.NoError(t, err)
	_, err = Scrypt(secret, salt, 31, 2, 2, 48)
	require.Error(t, err)
	_, err = Pbkdf2Sha256(secret, salt, 10, 48)
	require.NoError(t, err)

	assert.Equal(t, secretCopy, secret)
	assert.Equal(t, saltCopy, salt)
}

func TestDerive_ReleasesViewsOnEveryPath(t *testing.T) {
	d := New(Options{MaxMemory: 1 << 20})
	calls := []Params{
		PBKDF2Params{Iterations: 1, KeyLen: 32},          // success
		PBKDF2Params{Iterations: 0, KeyLen: 32},          // validation failure
		ScryptParams{N: 16, R: 1, P: 1, KeyLen: 32},      // success
		ScryptParams{N: 15, R: 1, P: 1, KeyLen: 32},      // validation failure
		ScryptParams{N: 1 << 20, R: 8, P: 1, KeyLen: 32}, // resource failure
		ScryptParams{N: 16, R: 1, P: 1, KeyLen: 0},       // empty output
	}
	for _, p := range calls {
		_, _ = d.Derive([]byte("pw"), []byte("salt"), p)
		assert.Zero(t, d.live.Load(), "views still borrowed after %s", p)
	}
}

func TestBorrow_ReleaseIsIdempotent(t *testing.T) {
	d := New(Options{})
	src := []byte("secret")
	v, release := d.borrow(src)
	assert.Equal(t, src, v.b)
	assert.EqualValues(t, 1, d.live.Load())

	release()
	release()
	assert.Zero(t, d.live.Load())
	assert.Equal(t, make([]byte, len(src)), v.b, "view must be wiped on release")
	assert.Equal(t, []byte("secret"), src)
}

func TestDerive_ConcurrentMatchesSequential(t *testing.T) {
	params := []Params{
		PBKDF2Params{Iterations: 1000, KeyLen: 32},
		ScryptParams{N: 1024, R: 8, P: 1, KeyLen: 64},
		ScryptParams{N: 256, R: 4, P: 2, KeyLen: 16},
		PBKDF2Params{Iterations: 7, KeyLen: 100},
	}
	secret := []byte("password")
	salt := []byte("salt")

	d := New(Options{})
	want := make([][]byte, len(params))
	for i, p := range params {
		key, err := d.Derive(secret, salt, p)
		require.NoError(t, err)
		want[i] = key
	}

	got := make([][]byte, len(params)*4)
	var g errgroup.Group
	for i := range got {
		i := i
		g.Go(func() error {
			key, err := d.Derive(secret, salt, params[i%len(params)])
			got[i] = key
			return err
		})
	}
	require.NoError(t, g.Wait())
	for i := range got {
		assert.Equal(t, want[i%len(params)], got[i])
	}
}

func TestDerive_NeverLogsSecretMaterial(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	d := New(Options{Logger: logger})

	key, err := d.Pbkdf2Sha256([]byte("hunter2-secret"), []byte("pepper-salt"), 1, 32)
	require.NoError(t, err)
	_, err = d.Scrypt([]byte("hunter2-secret"), []byte("pepper-salt"), 3, 1, 1, 32)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "derived key")
	assert.Contains(t, out, "key derivation failed")
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "pepper")
	assert.NotContains(t, out, hex.EncodeToString(key))
}

func TestDerive_LogsEveryFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	d := New(Options{Logger: logger, MaxMemory: 1 << 20})

	var nilParams *PBKDF2Params
	calls := []Params{
		nil,
		nilParams,
		PBKDF2Params{Iterations: 0, KeyLen: 32},
		ScryptParams{N: 1 << 20, R: 8, P: 1, KeyLen: 32},
	}
	for _, p := range calls {
		_, err := d.Derive([]byte("pw"), []byte("salt"), p)
		require.Error(t, err)
	}

	assert.Equal(t, len(calls), bytes.Count(buf.Bytes(), []byte(`"msg":"key derivation failed"`)))
	assert.Equal(t, 3, bytes.Count(buf.Bytes(), []byte(`"kind":"invalid parameter"`)))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"kind":"resource exhausted"`)))
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`"algorithm":"none"`)))
}

func TestErrorTaxonomy(t *testing.T) {
	_, invalid := Scrypt(nil, nil, 15, 1, 1, 32)
	_, exhaustedErr := New(Options{MaxMemory: 1024}).Scrypt(nil, nil, 1024, 1, 1, 32)
	faulted := guard("scrypt", func() error { panic("boom") })

	assert.Equal(t, StatusOK, Status(nil))
	assert.Equal(t, StatusInvalidParameter, Status(invalid))
	assert.Equal(t, StatusResourceExhausted, Status(exhaustedErr))
	assert.Equal(t, StatusInternalFailure, Status(faulted))
	assert.Equal(t, StatusInternalFailure, Status(errors.New("unrelated")))

	assert.ErrorIs(t, faulted, ErrInternalFailure)
	assert.NotErrorIs(t, invalid, ErrResourceExhausted)
	assert.Equal(t, "scrypt: invalid parameter: N must be a power of two greater than 1", invalid.Error())

	var e *Error
	require.ErrorAs(t, exhaustedErr, &e)
	assert.Equal(t, "scrypt", e.Op)
	assert.Equal(t, KindResourceExhausted, e.Kind)
}

func TestAllocate(t *testing.T) {
	buf, err := allocate("test", 16)
	require.NoError(t, err)
	assert.Len(t, buf, 16)

	_, err = allocate("test", uint64(maxInt)+1)
	assert.ErrorIs(t, err, ErrResourceExhausted)

	if strconv.IntSize == 64 {
		// Beyond the runtime's maximum allocation: make panics and the
		// panic is reported as exhaustion.
		_, err = allocate("test", 1<<60)
		assert.ErrorIs(t, err, ErrResourceExhausted)
	}
}

func TestDeriveSubkey(t *testing.T) {
	// RFC 5869 test case 1.
	ikm := unhex(t, "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b")
	salt := unhex(t, "000102030405060708090a0b0c")
	info := string(unhex(t, "f0f1f2f3f4f5f6f7f8f9"))

	okm, err := DeriveSubkey(ikm, salt, info, 42)
	require.NoError(t, err)
	assert.Equal(t,
		"3cb25f25faacd57a90434f64d0362f2a2d2d0a90cf1a5a4c5db02d56ecc4c5bf34007208d5b887185865",
		hex.EncodeToString(okm))

	a, err := DeriveSubkey(ikm, salt, "sync-encryption", 32)
	require.NoError(t, err)
	b, err := DeriveSubkey(ikm, salt, "sync-hmac", 32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	empty, err := DeriveSubkey(ikm, salt, "x", 0)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = DeriveSubkey(ikm, salt, "x", 255*32+1)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
