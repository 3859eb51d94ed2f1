package kdf

import "sync"

// view is a read-only borrow of one caller buffer for the duration of a
// derivation. Engines only ever see view.b, never the caller's slice.
type view struct {
	b []byte
}

// borrow acquires a view over src and returns the function that releases
// it. Release wipes and unlocks the private copy; it is safe to call more
// than once and must be deferred by the acquirer.
func (d *Deriver) borrow(src []byte) (*view, func()) {
	b := make([]byte, len(src))
	copy(b, src)
	lockMemory(b)
	d.live.Add(1)

	var once sync.Once
	return &view{b: b}, func() {
		once.Do(func() {
			wipe(b)
			unlockMemory(b)
			d.live.Add(-1)
		})
	}
}
