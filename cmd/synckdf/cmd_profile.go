package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mozilla-services/android-sync/internal/kdf"
	"github.com/mozilla-services/android-sync/internal/profile"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage derivation profiles",
	}
	cmd.AddCommand(
		newProfileListCmd(a),
		newProfileShowCmd(a),
		newProfileAddCmd(a),
		newProfileRemoveCmd(a),
		newProfileImportCmd(a),
		newProfileExportCmd(a),
	)
	return cmd
}

func newProfileListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			stored, err := db.ListProfiles()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSOURCE\tPARAMS\tMEMORY")
			for _, p := range profile.Builtins() {
				fmt.Fprintf(w, "%s\tbuilt-in\t%s\t%s\n", p.Name, describe(p), memory(p))
			}
			for _, p := range stored {
				fmt.Fprintf(w, "%s\tstored\t%s\t%s\n", p.Name, describe(p), memory(p))
			}
			return w.Flush()
		},
	}
}

func newProfileShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a profile as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.resolveProfile(args[0])
			if err != nil {
				return err
			}
			return profile.Encode(cmd.OutOrStdout(), []profile.Profile{p})
		},
	}
}

func newProfileAddCmd(a *app) *cobra.Command {
	var p profile.Profile
	var algorithm string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Store a new profile or replace a stored one",
		Example: `  synckdf profile add mobile --algorithm scrypt --n 16384 --r 8 --p 1
  synckdf profile add legacy --algorithm pbkdf2-sha256 --iterations 1000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			p.Algorithm = kdf.Algorithm(algorithm)
			if p.Algorithm == kdf.AlgPBKDF2SHA256 {
				p.N, p.R, p.P = 0, 0, 0
			} else {
				p.Iterations = 0
			}
			if err := a.saveProfiles([]profile.Profile{p}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s: %s\n", p.Name, describe(p))
			return nil
		},
	}
	cmd.Flags().StringVar(&algorithm, "algorithm", string(kdf.AlgScrypt), "pbkdf2-sha256 or scrypt")
	cmd.Flags().Uint32Var(&p.Iterations, "iterations", 0, "PBKDF2 iteration count")
	cmd.Flags().Uint64Var(&p.N, "n", 1<<15, "scrypt CPU/memory cost")
	cmd.Flags().Uint32Var(&p.R, "r", 8, "scrypt block size")
	cmd.Flags().Uint32Var(&p.P, "p", 1, "scrypt parallelization")
	cmd.Flags().Uint32Var(&p.Length, "length", 32, "key length in bytes")
	cmd.Flags().StringVar(&p.Description, "description", "", "free-form description")
	return cmd
}

func newProfileRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, ok := profile.Builtin(name); ok {
				return fmt.Errorf("%q: %w", name, errBuiltinLocked)
			}
			db, err := a.store()
			if err != nil {
				return err
			}
			removed, err := db.DeleteProfile(name)
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("%q: %w", name, profile.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed profile %s\n", name)
			return nil
		},
	}
}

func newProfileImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Store every profile in a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			profiles, err := profile.Decode(f)
			if err != nil {
				return err
			}
			if err := a.saveProfiles(profiles); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d profiles\n", len(profiles))
			return nil
		},
	}
}

func newProfileExportCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write stored profiles as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			profiles, err := db.ListProfiles()
			if err != nil {
				return err
			}
			if all {
				profiles = append(profile.Builtins(), profiles...)
				profile.Sort(profiles)
			}

			if len(args) == 0 {
				return profile.Encode(cmd.OutOrStdout(), profiles)
			}
			f, err := os.OpenFile(args[0], os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
			if err != nil {
				return err
			}
			if err := profile.Encode(f, profiles); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include built-in profiles")
	return cmd
}

// saveProfiles validates every profile before storing any of them.
func (a *app) saveProfiles(profiles []profile.Profile) error {
	for _, p := range profiles {
		if _, ok := profile.Builtin(p.Name); ok {
			return fmt.Errorf("%q: %w", p.Name, errBuiltinLocked)
		}
		if err := p.Validate(); err != nil {
			return err
		}
	}
	db, err := a.store()
	if err != nil {
		return err
	}
	for _, p := range profiles {
		if err := db.SaveProfile(p); err != nil {
			return fmt.Errorf("saving %q: %w", p.Name, err)
		}
	}
	return nil
}

func describe(p profile.Profile) string {
	params, err := p.Params()
	if err != nil {
		return "invalid: " + err.Error()
	}
	return params.String()
}

func memory(p profile.Profile) string {
	params, err := p.Params()
	if err != nil {
		return "-"
	}
	sp, ok := params.(kdf.ScryptParams)
	if !ok {
		return "-"
	}
	n, ok := sp.RequiredMemory()
	if !ok {
		return "overflow"
	}
	return humanize.IBytes(n)
}
