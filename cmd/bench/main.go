package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liamcoop/modelbench/evaluators"
	"github.com/liamcoop/modelbench/internal/config"
	"github.com/liamcoop/modelbench/internal/logger"
)

// errTestsFailed makes the process exit 1 without printing an error
var errTestsFailed = errors.New("one or more tests failed")

// app carries state shared by subcommands
type app struct {
	cfg      config.Config
	registry *evaluators.Registry
	jsonOut  bool
}

func newRootCmd() *cobra.Command {
	a := &app{registry: evaluators.DefaultRegistry()}

	rootCmd := &cobra.Command{
		Use:           "bench",
		Short:         "Score AI-generated causal and stock-and-flow models",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			opts := logger.OptionsFromEnv()
			opts.Level = cfg.LogLevel
			opts.Output = cmd.ErrOrStderr()
			return logger.Setup(cmd.Context(), opts)
		},
	}
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Write machine-readable JSON")

	rootCmd.AddCommand(
		newCategoriesCmd(a),
		newEvaluateCmd(a),
		newRunCmd(a),
	)
	return rootCmd
}

func main() {
	err := newRootCmd().ExecuteContext(context.Background())
	_ = logger.Shutdown(context.Background())

	if errors.Is(err, errTestsFailed) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
