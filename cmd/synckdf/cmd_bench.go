package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mozilla-services/android-sync/internal/kdf"
	"github.com/mozilla-services/android-sync/internal/profile"
	"github.com/mozilla-services/android-sync/internal/store"
)

// benchSecret and benchSalt are fixed inputs; benchmarks only measure cost.
var (
	benchSecret = []byte("synckdf benchmark secret")
	benchSalt   = []byte("synckdf benchmark salt")
)

func newBenchCmd(a *app) *cobra.Command {
	var runs, jobs int
	cmd := &cobra.Command{
		Use:   "bench <profile>...",
		Short: "Time derivations for one or more profiles",
		Long: `Time derivations for one or more profiles and record the results.

Profiles are benchmarked concurrently, at most --jobs at a time. Runs
within one profile are sequential.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if jobs < 1 {
				return fmt.Errorf("--jobs must be at least 1")
			}

			profiles := make([]profile.Profile, len(args))
			for i, name := range args {
				p, err := a.resolveProfile(name)
				if err != nil {
					return err
				}
				profiles[i] = p
			}

			results := make([]store.Benchmark, len(profiles))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(jobs)
			for i, p := range profiles {
				i, p := i, p
				g.Go(func() error {
					res, err := a.bench(ctx, p, runs)
					if err != nil {
						return fmt.Errorf("benchmarking %s: %w", p.Name, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			db, err := a.store()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROFILE\tRUNS\tMEAN\tMIN\tMAX\tMEMORY")
			for i, res := range results {
				if err := db.SaveBenchmark(res); err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%d\t%.1fms\t%.1fms\t%.1fms\t%s\n",
					res.Profile, res.Runs, res.MeanMS, res.MinMS, res.MaxMS, memory(profiles[i]))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 3, "derivations per profile")
	cmd.Flags().IntVar(&jobs, "jobs", 2, "profiles benchmarked at once")
	return cmd
}

func (a *app) bench(ctx context.Context, p profile.Profile, runs int) (store.Benchmark, error) {
	params, err := p.Params()
	if err != nil {
		return store.Benchmark{}, err
	}
	res := store.Benchmark{Profile: p.Name, Params: params.String(), Runs: runs}
	if sp, ok := params.(kdf.ScryptParams); ok {
		need, ok := sp.RequiredMemory()
		if !ok {
			return store.Benchmark{}, fmt.Errorf("scrypt memory estimate overflows: %w", kdf.ErrResourceExhausted)
		}
		res.MemoryBytes = need
	}

	var total time.Duration
	for i := 0; i < runs; i++ {
		if err := ctx.Err(); err != nil {
			return store.Benchmark{}, err
		}
		start := time.Now()
		key, err := a.deriver.Derive(benchSecret, benchSalt, params)
		elapsed := time.Since(start)
		if err != nil {
			return store.Benchmark{}, err
		}
		clear(key)

		ms := float64(elapsed.Microseconds()) / 1000
		if i == 0 || ms < res.MinMS {
			res.MinMS = ms
		}
		if ms > res.MaxMS {
			res.MaxMS = ms
		}
		total += elapsed
	}
	res.MeanMS = float64(total.Microseconds()) / 1000 / float64(runs)
	a.log.Info("benchmarked profile", "profile", p.Name, "params", res.Params, "mean_ms", res.MeanMS)
	return res, nil
}
