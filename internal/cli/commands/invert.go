// SPDX-License-Identifier: MIT

package commands

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/invcache/internal/config"
	"github.com/katalvlaran/invcache/matrix"
)

type invertFlags struct {
	matrix          string
	pivotTolerance  float64
	partialPivoting bool
	check           bool
}

func newInvertCmd(g *globalFlags) *cobra.Command {
	f := &invertFlags{}
	cmd := &cobra.Command{
		Use:   "invert --matrix '[[1,2],[3,4]]'",
		Short: "Invert a single matrix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInvert(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.matrix, "matrix", "m", "", "matrix as a YAML/JSON flow sequence of rows")
	cmd.Flags().Float64Var(&f.pivotTolerance, "pivot-tolerance", matrix.DefaultPivotTolerance, "treat pivots with |p| <= tolerance as zero (0 = n·ε·max|a|)")
	cmd.Flags().BoolVar(&f.partialPivoting, "partial-pivoting", matrix.DefaultPartialPivoting, "enable row-swap partial pivoting (lu backend)")
	cmd.Flags().BoolVar(&f.check, "check", false, "also print max |A·A⁻¹ - I|")
	_ = cmd.MarkFlagRequired("matrix")

	return cmd
}

func runInvert(cmd *cobra.Command, g *globalFlags, f *invertFlags) error {
	level, err := parseLevel(g.logLevel, logrus.WarnLevel)
	if err != nil {
		return err
	}
	log := newLogger(cmd.ErrOrStderr(), level)

	invert, err := config.InverterFor(backendOr(g.backend, config.DefaultBackend))
	if err != nil {
		return fmt.Errorf("--backend: %w", err)
	}
	if f.pivotTolerance < 0 || math.IsNaN(f.pivotTolerance) || math.IsInf(f.pivotTolerance, 0) {
		return fmt.Errorf("--pivot-tolerance %v must be finite and >= 0", f.pivotTolerance)
	}

	a, err := config.ParseMatrix(f.matrix)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"rows": a.Rows(), "cols": a.Cols()}).Debug("inverting")

	inv, err := invert(a,
		matrix.WithPivotTolerance(f.pivotTolerance),
		matrix.WithPartialPivoting(f.partialPivoting),
	)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), inv)

	if f.check {
		residual, err := maxResidual(a, inv)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "residual=%g\n", residual)
	}

	return nil
}

// maxResidual returns max |(a·inv - I)[i,j]|.
func maxResidual(a, inv matrix.Matrix) (float64, error) {
	prod, err := matrix.Mul(a, inv)
	if err != nil {
		return 0, err
	}
	rows, err := matrix.ToRows(prod)
	if err != nil {
		return 0, err
	}

	var worst, want float64
	for i, row := range rows {
		for j, v := range row {
			want = 0
			if i == j {
				want = 1
			}
			worst = math.Max(worst, math.Abs(v-want))
		}
	}

	return worst, nil
}
