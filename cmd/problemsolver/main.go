// Package main implements the problemsolver CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/problemsolver/internal/logging"
)

// version is set at build time.
var version = "dev"

func main() {
	root, c := newRootCmd(prometheus.NewRegistry())
	if err := execute(context.Background(), root, c); err != nil {
		os.Exit(1)
	}
}

// execute runs root and releases the app even when a command fails, since
// cobra skips post-run hooks on error. Metrics are written only after a
// successful run.
func execute(ctx context.Context, root *cobra.Command, c *cli) error {
	err := root.ExecuteContext(ctx)
	if err == nil && c.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(c.metricsFile, c.registry); werr != nil {
			err = fmt.Errorf("writing metrics: %w", werr)
		}
	}
	if c.app != nil {
		if cerr := c.app.Close(context.Background()); err == nil {
			err = cerr
		}
		c.app = nil
	}
	return err
}

// cli carries state shared by subcommands.
type cli struct {
	configPath  string
	metricsFile string
	registry    *prometheus.Registry
	app         *app
}

func newRootCmd(reg *prometheus.Registry) (*cobra.Command, *cli) {
	c := &cli{registry: reg}

	root := &cobra.Command{
		Use:   "problemsolver",
		Short: "Deterministic heuristic problem solver",
		Long: `problemsolver analyzes a free-text problem, matches it against known
solution patterns and ranks candidate approaches.

Sessions are kept in memory unless storage.backend is badger, so details
and feedback for an earlier run need the badger backend.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), c.configPath, c.registry)
			if err != nil {
				return err
			}
			c.app = a
			cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			logging.FromContext(cmd.Context()).Debug(cmd.Context(), "command completed",
				zap.String("command", cmd.Name()))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ~/.config/problemsolver/config.yaml)")
	root.PersistentFlags().StringVar(&c.metricsFile, "metrics-file", "", "write solver metrics in Prometheus text format to this file")

	root.AddCommand(
		newSolveCmd(c),
		newDetailsCmd(c),
		newStatsCmd(c),
		newFeedbackCmd(c),
		newInsightsCmd(c),
	)
	return root, c
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
