// SPDX-License-Identifier: MIT

// Package commands implements the invcache command line.
package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/invcache/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersion sets the version info reported by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	logLevel string
	backend  string
}

// NewRootCmd builds a fresh command tree. Each call returns independent
// flag state, so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "invcache",
		Short:         "Memoized matrix inversion",
		Long:          `Invert matrices once and serve the cached inverse until the matrix changes.`,
		Version:       versionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error); overrides the session file")
	root.PersistentFlags().StringVar(&g.backend, "backend", "", "inversion backend (lu, gonum); overrides the session file")

	root.AddCommand(newResolveCmd(g), newInvertCmd(g))

	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger returns a logrus logger writing to the command's stderr.
func newLogger(w io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)

	return l
}

// parseLevel resolves the --log-level flag, falling back to def when unset.
func parseLevel(flag string, def logrus.Level) (logrus.Level, error) {
	if flag == "" {
		return def, nil
	}
	lvl, err := logrus.ParseLevel(flag)
	if err != nil {
		return 0, fmt.Errorf("--log-level: %w", err)
	}

	return lvl, nil
}

// backendOr resolves the --backend flag, falling back to def when unset.
func backendOr(flag string, def config.Backend) config.Backend {
	if flag == "" {
		return def
	}

	return config.Backend(flag)
}
