package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mozilla-services/android-sync/internal/store"
)

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var benchmarks bool
	var profileName string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent derivations or benchmark results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			if benchmarks {
				results, err := db.ListBenchmarks(profileName, limit)
				if err != nil {
					return err
				}
				return printBenchmarks(cmd.OutOrStdout(), results)
			}
			if profileName != "" {
				return fmt.Errorf("--profile only applies with --benchmarks")
			}
			entries, err := db.RecentDerivations(limit)
			if err != nil {
				return err
			}
			return printDerivations(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	cmd.Flags().BoolVar(&benchmarks, "benchmarks", false, "show recorded benchmark results instead of derivations")
	cmd.Flags().StringVar(&profileName, "profile", "", "only show benchmarks of this profile")
	return cmd
}

func printDerivations(out io.Writer, entries []store.Derivation) error {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No derivations recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROFILE\tPARAMS\tOUTCOME\tDURATION")
	for _, e := range entries {
		name := e.Profile
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			name, e.Params, e.Outcome, e.DurationMS)
	}
	return w.Flush()
}

func printBenchmarks(out io.Writer, results []store.Benchmark) error {
	if len(results) == 0 {
		fmt.Fprintln(out, "No benchmarks recorded.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROFILE\tPARAMS\tRUNS\tMEAN\tMIN\tMAX\tMEMORY")
	for _, b := range results {
		mem := "-"
		if b.MemoryBytes > 0 {
			mem = humanize.IBytes(b.MemoryBytes)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1fms\t%.1fms\t%.1fms\t%s\n",
			b.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			b.Profile, b.Params, b.Runs, b.MeanMS, b.MinMS, b.MaxMS, mem)
	}
	return w.Flush()
}
