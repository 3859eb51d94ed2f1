// Command synckdf derives keys from passwords with PBKDF2-HMAC-SHA256 or
// scrypt, manages named parameter profiles and benchmarks them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mozilla-services/android-sync/internal/kdf"
)

func main() {
	kdf.DisableCoreDumps()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fatal("%v", err)
	}
}

func fatal(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
