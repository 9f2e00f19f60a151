package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/clrmeta/clrmeta/builder"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <in> <out>",
	Short: "Round-trip an image through the object model and builder unchanged",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, out := args[0], args[1]

		img, err := loadImageFile(in)
		if err != nil {
			return err
		}

		directory, err := builder.New(img, logger).Write()
		if err != nil {
			logger.Warn("rebuild failed", zap.String("in", in), zap.Error(err))
			return fmt.Errorf("rebuilding %s: %w", in, err)
		}

		if err := os.WriteFile(out, directory, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("wrote %d bytes to %s\n", len(directory), out)
		return nil
	},
}
