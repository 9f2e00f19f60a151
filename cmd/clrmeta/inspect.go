package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>...",
	Short: "Print table row counts and heap sizes for one or more images",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reports := make([]string, len(args))
		g, _ := errgroup.WithContext(context.Background())
		for i, path := range args {
			i, path := i, path
			g.Go(func() error {
				img, err := loadImageFile(path)
				if err != nil {
					return err
				}
				reports[i] = formatInspectReport(path, img)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		for _, r := range reports {
			fmt.Println(r)
		}
		return nil
	},
}

func formatInspectReport(path string, img *model.Image) string {
	out := fmt.Sprintf("%s\n  heaps: strings=%dB us=%dB blob=%dB guid=%d entries\n", path,
		img.Strings.Len(), img.UserStrings.Len(), img.Blobs.Len(), img.GUIDs.Len())
	tables := schema.Tables()
	for idx := 0; idx < 64; idx++ {
		ti := schema.TableIndex(idx)
		sch, ok := tables[ti]
		if !ok {
			continue
		}
		n := img.Rows.Count(ti)
		if n == 0 {
			continue
		}
		out += fmt.Sprintf("  %-24s %d rows\n", sch.Name, n)
	}
	return out
}
