package main

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mozilla-services/android-sync/internal/kdf"
	"github.com/mozilla-services/android-sync/internal/profile"
	"github.com/mozilla-services/android-sync/internal/store"
)

var (
	errNoTerminal    = errors.New("stdin is not a terminal; pass --stdin to read the secret from it")
	errSaltConflict  = errors.New("--salt and --salt-hex are mutually exclusive")
	errBadEncoding   = errors.New("--encoding must be hex or base64")
	errBuiltinLocked = errors.New("built-in profiles cannot be changed")
)

// maxSecretLen bounds what --stdin will read.
const maxSecretLen = 1 << 20

// inputFlags are shared by every command that derives a key.
type inputFlags struct {
	stdin    bool
	salt     string
	saltHex  string
	encoding string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.stdin, "stdin", false, "read the secret from stdin instead of prompting")
	cmd.Flags().StringVar(&f.salt, "salt", "", "salt as a UTF-8 string")
	cmd.Flags().StringVar(&f.saltHex, "salt-hex", "", "salt as hex")
	cmd.Flags().StringVar(&f.encoding, "encoding", "hex", "output encoding: hex or base64")
}

func (f *inputFlags) saltBytes() ([]byte, error) {
	if f.salt != "" && f.saltHex != "" {
		return nil, errSaltConflict
	}
	if f.saltHex != "" {
		b, err := hex.DecodeString(f.saltHex)
		if err != nil {
			return nil, fmt.Errorf("decoding --salt-hex: %w", err)
		}
		return b, nil
	}
	return []byte(f.salt), nil
}

// secret reads the secret from stdin or prompts for it on the terminal.
// The caller wipes the result.
func (f *inputFlags) secret(cmd *cobra.Command) ([]byte, error) {
	if f.stdin {
		return readSecret(cmd.InOrStdin())
	}
	return promptPassword(cmd.ErrOrStderr(), "Password: ")
}

// readSecret reads r to EOF and drops one trailing line ending.
func readSecret(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, maxSecretLen+1))
	if err != nil {
		return nil, fmt.Errorf("reading secret: %w", err)
	}
	if len(b) > maxSecretLen {
		clear(b)
		return nil, fmt.Errorf("secret longer than %d bytes", maxSecretLen)
	}
	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	return b, nil
}

func promptPassword(w io.Writer, prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errNoTerminal
	}
	fmt.Fprint(w, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

func encode(b []byte, encoding string) (string, error) {
	switch encoding {
	case "hex":
		return hex.EncodeToString(b), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(b), nil
	}
	return "", errBadEncoding
}

// derive runs one derivation and records its outcome in the store.
func (a *app) derive(profileName string, secret, salt []byte, params kdf.Params) ([]byte, error) {
	start := time.Now()
	key, err := a.deriver.Derive(secret, salt, params)
	elapsed := time.Since(start)

	entry := store.Derivation{
		Profile:    profileName,
		Outcome:    store.OutcomeOK,
		DurationMS: elapsed.Milliseconds(),
	}
	if params != nil {
		entry.Algorithm = string(params.Algorithm())
		entry.Params = params.String()
		entry.KeyLength = params.KeyLength()
	}
	if err != nil {
		entry.Outcome = kdf.KindOf(err).String()
	}
	a.record(entry)
	return key, err
}

// record logs a derivation. The history is best-effort and never fails the
// derivation itself.
func (a *app) record(entry store.Derivation) {
	db, err := a.store()
	if err == nil {
		err = db.LogDerivation(entry)
	}
	if err != nil {
		a.log.Warn("recording derivation", "error", err)
	}
}

// resolveProfile finds a built-in or stored profile by name.
func (a *app) resolveProfile(name string) (profile.Profile, error) {
	if p, ok := profile.Builtin(name); ok {
		return p, nil
	}
	db, err := a.store()
	if err != nil {
		return profile.Profile{}, err
	}
	p, err := db.GetProfile(name)
	if err != nil {
		return profile.Profile{}, err
	}
	if p == nil {
		return profile.Profile{}, fmt.Errorf("%q: %w", name, profile.ErrNotFound)
	}
	return *p, nil
}
