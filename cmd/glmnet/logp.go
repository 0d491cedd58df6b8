// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/katalvlaran/glmnet/ensemble"
	"github.com/katalvlaran/glmnet/prior"
	"github.com/katalvlaran/glmnet/symexpr"
	"github.com/spf13/cobra"
)

func newLogPCmd(root *rootOptions) *cobra.Command {
	var scales []float64

	cmd := &cobra.Command{
		Use:   "logp",
		Short: "Draw one network and evaluate log_p at several likelihood scales",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			cache := symexpr.New(symexpr.WithLogger(logger))
			m, err := prior.New(cfg,
				prior.WithSeed(root.seed),
				prior.WithCache(cache),
				prior.WithLogger(logger))
			if err != nil {
				return err
			}
			st, err := m.Sample()
			if err != nil {
				return err
			}
			a, err := symexpr.AsDense(st[prior.VarA])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s N=%d density %.4f\n", m.Kind(), m.N(), ensemble.Density(a))
			for _, s := range scales {
				lp, err := m.LogP(symexpr.ValueTree{prior.VarLkhdScale: s})
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "lkhd_scale %g log_p %.6f\n", s, lp)
			}
			st2 := cache.Stats()
			fmt.Fprintf(out, "cache entries %d hits %d misses %d compiles %d\n",
				st2.Entries, st2.Hits, st2.Misses, st2.Compiles)
			return nil
		},
	}
	cmd.Flags().Float64SliceVar(&scales, "scales", []float64{0, 0.5, 1}, "likelihood scales to evaluate")
	return cmd
}
