package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the database and effective limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			version, err := db.SchemaVersion()
			if err != nil {
				return err
			}
			stored, err := db.ListProfiles()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory:       %s\n", a.cfg.Dir)
			fmt.Fprintf(out, "Database:        %s\n", a.cfg.DBPath())
			fmt.Fprintf(out, "Schema version:  %s\n", version)
			fmt.Fprintf(out, "Stored profiles: %d\n", len(stored))
			fmt.Fprintf(out, "Memory ceiling:  %s\n", a.cfg.MaxMemory)
			return nil
		},
	}
}
