package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mozilla-services/android-sync/internal/kdf"
	"github.com/mozilla-services/android-sync/internal/profile"
)

func newPBKDF2Cmd(a *app) *cobra.Command {
	var in inputFlags
	var iterations, length uint32
	var save string
	cmd := &cobra.Command{
		Use:   "pbkdf2",
		Short: "Derive a key with PBKDF2-HMAC-SHA256",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdhoc(cmd, &in, kdf.PBKDF2Params{Iterations: iterations, KeyLen: length}, save)
		},
	}
	in.register(cmd)
	cmd.Flags().Uint32Var(&iterations, "iterations", 0, "iteration count (required)")
	cmd.Flags().Uint32Var(&length, "length", 32, "key length in bytes")
	cmd.Flags().StringVar(&save, "save", "", "store these parameters as a profile after a successful derivation")
	cmd.MarkFlagRequired("iterations")
	return cmd
}

func newScryptCmd(a *app) *cobra.Command {
	var in inputFlags
	var n uint64
	var r, p, length uint32
	var save string
	cmd := &cobra.Command{
		Use:   "scrypt",
		Short: "Derive a key with scrypt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdhoc(cmd, &in, kdf.ScryptParams{N: n, R: r, P: p, KeyLen: length}, save)
		},
	}
	in.register(cmd)
	cmd.Flags().Uint64Var(&n, "n", 1<<15, "CPU/memory cost, a power of two")
	cmd.Flags().Uint32Var(&r, "r", 8, "block size")
	cmd.Flags().Uint32Var(&p, "p", 1, "parallelization")
	cmd.Flags().Uint32Var(&length, "length", 32, "key length in bytes")
	cmd.Flags().StringVar(&save, "save", "", "store these parameters as a profile after a successful derivation")
	return cmd
}

// runAdhoc derives with explicit parameters and, when save is set, stores
// them as a profile once the derivation has succeeded.
func (a *app) runAdhoc(cmd *cobra.Command, in *inputFlags, params kdf.Params, save string) error {
	if save != "" {
		if _, ok := profile.Builtin(save); ok {
			return fmt.Errorf("%q: %w", save, errBuiltinLocked)
		}
		if err := profile.CheckName(save); err != nil {
			return err
		}
	}
	if err := a.runDerive(cmd, in, save, params, subkeyFlags{}); err != nil {
		return err
	}
	if save == "" {
		return nil
	}
	p := profile.FromParams(save, params)
	if err := a.saveProfiles([]profile.Profile{p}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved profile %s: %s\n", p.Name, describe(p))
	return nil
}

type subkeyFlags struct {
	info   string
	length uint32
}

func newDeriveCmd(a *app) *cobra.Command {
	var in inputFlags
	var sub subkeyFlags
	cmd := &cobra.Command{
		Use:   "derive <profile>",
		Short: "Derive a key with a named profile",
		Long: `Derive a key with the parameters of a built-in or stored profile.

With --subkey-info the derived key is expanded with HKDF-SHA256 into a
subkey bound to that context string, and only the subkey is printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveProfile(args[0])
			if err != nil {
				return err
			}
			params, err := p.Params()
			if err != nil {
				return err
			}
			return a.runDerive(cmd, &in, p.Name, params, sub)
		},
	}
	in.register(cmd)
	cmd.Flags().StringVar(&sub.info, "subkey-info", "", "expand the key into an HKDF subkey for this context")
	cmd.Flags().Uint32Var(&sub.length, "subkey-length", 32, "subkey length in bytes")
	return cmd
}

func (a *app) runDerive(cmd *cobra.Command, in *inputFlags, profileName string, params kdf.Params, sub subkeyFlags) error {
	if _, err := encode(nil, in.encoding); err != nil {
		return err
	}
	salt, err := in.saltBytes()
	if err != nil {
		return err
	}
	secret, err := in.secret(cmd)
	if err != nil {
		return err
	}
	defer clear(secret)

	key, err := a.derive(profileName, secret, salt, params)
	if err != nil {
		return err
	}
	defer clear(key)

	if sub.info != "" {
		subkey, err := kdf.DeriveSubkey(key, salt, sub.info, sub.length)
		if err != nil {
			return err
		}
		defer clear(subkey)
		key = subkey
	}

	out, err := encode(key, in.encoding)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
