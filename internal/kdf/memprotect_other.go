//go:build !linux && !darwin

package kdf

func lockMemory([]byte)   {}
func unlockMemory([]byte) {}

// DisableCoreDumps is a no-op on this platform.
func DisableCoreDumps() {}
