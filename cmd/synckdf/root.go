package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mozilla-services/android-sync/internal/config"
	"github.com/mozilla-services/android-sync/internal/kdf"
	"github.com/mozilla-services/android-sync/internal/logging"
	"github.com/mozilla-services/android-sync/internal/store"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	cfgPath string
	cfg     *config.Config
	log     *slog.Logger
	deriver *kdf.Deriver
	db      *store.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "synckdf",
		Short: "Password key derivation for sync clients",
		Long: `synckdf stretches passwords into keys with PBKDF2-HMAC-SHA256 or scrypt.

Secrets are prompted for on the terminal or read from stdin with --stdin.
Only parameters and outcomes are recorded; secrets, salts and keys never
leave the process except as the printed result.`,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default <dir>/config.yaml)")

	root.AddCommand(
		newPBKDF2Cmd(a),
		newScryptCmd(a),
		newDeriveCmd(a),
		newProfileCmd(a),
		newBenchCmd(a),
		newHistoryCmd(a),
		newConfigCmd(a),
		newStatusCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.deriver = kdf.New(kdf.Options{MaxMemory: uint64(cfg.MaxMemory), Logger: log})
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// store opens the metadata database on first use.
func (a *app) store() (*store.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := store.Open(a.cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", a.cfg.DBPath(), err)
	}
	a.db = db
	return db, nil
}
