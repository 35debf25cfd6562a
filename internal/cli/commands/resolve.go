// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/invcache/cache"
	"github.com/katalvlaran/invcache/internal/config"
	"github.com/katalvlaran/invcache/matrix"
)

func newResolveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <session.yaml>",
		Short: "Replay a session of SetMatrix/ResolveInverse steps",
		Long: `Replay a session file against one cached matrix.

Each step may replace the matrix (set) and then resolve its inverse a number
of times. Every inverse is printed, followed by the cache counters.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, g, args[0])
		},
	}
}

func runResolve(cmd *cobra.Command, g *globalFlags, path string) error {
	s, err := config.Load(path)
	if err != nil {
		return err
	}

	invert, err := config.InverterFor(backendOr(g.backend, s.Backend))
	if err != nil {
		return fmt.Errorf("--backend: %w", err)
	}
	level, err := parseLevel(g.logLevel, s.Level())
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), level)

	initial, err := matrix.NewDenseFrom(s.Steps[0].Set)
	if err != nil {
		return err
	}
	c := cache.New(initial, cache.WithInverter(invert), cache.WithLogger(log))
	opts := s.InverseOptions()
	out := cmd.OutOrStdout()

	log.WithField("steps", len(s.Steps)).Info("session loaded")

	var failed int
	for i, st := range s.Steps {
		if i > 0 && st.Set != nil {
			m, err := matrix.NewDenseFrom(st.Set)
			if err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			c.SetMatrix(m)
			fmt.Fprintf(out, "step %d: set %dx%d\n", i, m.Rows(), m.Cols())
		}

		for k := 1; k <= st.Resolve; k++ {
			inv, err := cache.ResolveInverse(c, opts...)
			if err != nil {
				failed++
				fmt.Fprintf(out, "step %d resolve %d: error: %v\n", i, k, err)
				continue
			}
			fmt.Fprintf(out, "step %d resolve %d:\n%v", i, k, inv)
		}
	}

	st := c.Stats()
	fmt.Fprintf(out, "hits=%d misses=%d failures=%d invalidations=%d\n",
		st.Hits, st.Misses, st.Failures, st.Invalidations)

	if failed > 0 {
		return fmt.Errorf("%d resolve(s) failed", failed)
	}

	return nil
}
