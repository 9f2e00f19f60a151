package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clrmeta/clrmeta/model"
)

var dumpHeapName string

func init() {
	dumpHeapCmd.Flags().StringVar(&dumpHeapName, "heap", "strings", "heap to dump: strings|us|blob|guid")
}

var dumpHeapCmd = &cobra.Command{
	Use:   "dump-heap <file>",
	Short: "Print every interned entry of one heap in an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := loadImageFile(args[0])
		if err != nil {
			return err
		}
		return dumpHeap(img, dumpHeapName)
	},
}

func dumpHeap(img *model.Image, heap string) error {
	switch heap {
	case "strings":
		for _, off := range img.Strings.Offsets() {
			s, err := img.Strings.Get(off)
			if err != nil {
				return err
			}
			fmt.Printf("%6d: %q\n", off, s)
		}
	case "us":
		for _, off := range img.UserStrings.Offsets() {
			s, err := img.UserStrings.Get(off)
			if err != nil {
				return err
			}
			fmt.Printf("%6d: %q\n", off, s)
		}
	case "blob":
		for _, off := range img.Blobs.Offsets() {
			b, err := img.Blobs.Get(off)
			if err != nil {
				return err
			}
			fmt.Printf("%6d: % x\n", off, b)
		}
	case "guid":
		for i := 1; i <= img.GUIDs.Len(); i++ {
			g, err := img.GUIDs.Get(uint32(i))
			if err != nil {
				return err
			}
			fmt.Printf("%6d: %s\n", i, g)
		}
	default:
		return fmt.Errorf("dump-heap: unrecognized heap %q, want strings|us|blob|guid", heap)
	}
	return nil
}
