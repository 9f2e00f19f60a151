// Command clrmeta inspects, dumps, verifies, and rebuilds ECMA-335 metadata
// directories embedded in managed PE images.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clrmeta/clrmeta/config"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func newLogger(level string) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if err := zc.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("main: unrecognized log level %q: %w", level, err)
	}
	return zc.Build()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "clrmeta",
		Short: "Inspect and rebuild ECMA-335 CLI metadata directories",
		Long: `clrmeta reads, models, and re-emits the metadata directory embedded in a
managed PE image: the table stream and its four heap companions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			logger, err = newLogger(cfg.LogLevel)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
	}

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(dumpHeapCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(rebuildCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
