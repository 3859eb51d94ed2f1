package kdf

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// deriveScrypt runs the scrypt engine: an expanding PBKDF2 pass, roMix over
// each of the p blocks, and a final PBKDF2 pass keyed by the mixed blocks.
// Every scratch buffer belongs to this call and is wiped before returning.
func deriveScrypt(secret, salt []byte, p ScryptParams, ceiling uint64) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	need, ok := p.RequiredMemory()
	if !ok {
		return nil, exhausted("scrypt", "insufficient memory", fmt.Errorf("working memory for %s overflows", p))
	}
	if need > ceiling || need > uint64(maxInt) {
		return nil, exhausted("scrypt", "insufficient memory",
			fmt.Errorf("%s needs %s, limit is %s", p, humanize.IBytes(need), humanize.IBytes(ceiling)))
	}
	if uint64(p.KeyLen) > uint64(maxInt) {
		return nil, invalidParam("scrypt", "key length %d not representable", p.KeyLen)
	}
	if p.KeyLen == 0 {
		return []byte{}, nil
	}

	// need <= maxInt, so every product below fits in an int.
	r, n, par := int(p.R), int(p.N), int(p.P)
	blockLen := 128 * r

	xy, err := allocate("scrypt", uint64(2*blockLen))
	if err != nil {
		return nil, err
	}
	defer wipe(xy)

	v, err := allocate("scrypt", uint64(blockLen)*p.N)
	if err != nil {
		return nil, err
	}
	defer wipe(v)

	b, err := pbkdf2SHA256("scrypt", secret, salt, 1, par*blockLen)
	if err != nil {
		return nil, err
	}
	defer wipe(b)

	err = guard("scrypt", func() error {
		for i := 0; i < par; i++ {
			roMix(b[i*blockLen:(i+1)*blockLen], r, n, v, xy)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return pbkdf2SHA256("scrypt", secret, b, 1, int(p.KeyLen))
}
