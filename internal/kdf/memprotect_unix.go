//go:build linux || darwin

package kdf

import "golang.org/x/sys/unix"

// lockMemory locks the page(s) backing b so borrowed secrets are not swapped
// to disk. Best-effort: failure is ignored (the process may lack
// CAP_IPC_LOCK or be over RLIMIT_MEMLOCK).
func lockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Mlock(b)
}

// unlockMemory unlocks pages locked by lockMemory. Best-effort.
func unlockMemory(b []byte) {
	if len(b) == 0 {
		return
	}
	_ = unix.Munlock(b)
}

// DisableCoreDumps sets RLIMIT_CORE to 0 so key material cannot end up in a
// core file. It affects the whole process and is meant for executables, not
// for library callers. Best-effort.
func DisableCoreDumps() {
	_ = unix.Setrlimit(unix.RLIMIT_CORE, &unix.Rlimit{Cur: 0, Max: 0})
}
