package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <file>...",
	Short: "Re-parse images and check cheap-to-verify structural invariants",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			img, err := loadImageFile(path)
			if err != nil {
				return err
			}
			if err := verifyImage(img); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Printf("%s: ok\n", path)
		}
		return nil
	},
}

func verifyImage(img *model.Image) error {
	if err := verifyHeapZeroOffsets(img); err != nil {
		return err
	}
	if err := verifySortedTables(img); err != nil {
		return err
	}
	return verifyIndexBounds(img)
}

func verifyHeapZeroOffsets(img *model.Image) error {
	if s, err := img.Strings.Get(0); err != nil || s != "" {
		return fmt.Errorf("#Strings offset 0 is not the empty string")
	}
	if s, err := img.UserStrings.Get(0); err != nil || s != "" {
		return fmt.Errorf("#US offset 0 is not the empty string")
	}
	if b, err := img.Blobs.Get(0); err != nil || len(b) != 0 {
		return fmt.Errorf("#Blob offset 0 is not the empty payload")
	}
	return nil
}

func verifySortedTables(img *model.Image) error {
	for idx := 0; idx < 64; idx++ {
		ti := schema.TableIndex(idx)
		column, sorted := schema.IsSorted(ti)
		if !sorted {
			continue
		}
		rows, err := img.Rows.Rows(ti)
		if err != nil {
			continue
		}
		for i := 1; i < len(rows); i++ {
			if rows[i-1].Get(column) > rows[i].Get(column) {
				return fmt.Errorf("table 0x%02x is not sorted by %s at row %d", idx, column, i+1)
			}
		}
	}
	return nil
}

func verifyIndexBounds(img *model.Image) error {
	tables := schema.Tables()
	card := img.Rows.Cardinalities()
	for idx, sch := range tables {
		rows, err := img.Rows.Rows(idx)
		if err != nil {
			continue
		}
		for rn, row := range rows {
			for _, c := range sch.Columns {
				switch c.Kind {
				case schema.TableIndexColumn:
					v := row.Get(c.Name)
					if v != 0 && int(v) > card[c.Table] {
						return fmt.Errorf("%s row %d column %s references out-of-range row %d of table 0x%02x", sch.Name, rn+1, c.Name, v, byte(c.Table))
					}
				case schema.CodedIndexColumn:
					v := row.Get(c.Name)
					if v == 0 {
						continue
					}
					info := schema.Info(c.CodedIndex)
					rowNumber, tag := schema.Decode(v, info.TagBits)
					target, ok := schema.TableFor(c.CodedIndex, tag)
					if !ok {
						return fmt.Errorf("%s row %d column %s has an unknown coded-index tag %d", sch.Name, rn+1, c.Name, tag)
					}
					if rowNumber != 0 && int(rowNumber) > card[target] {
						return fmt.Errorf("%s row %d column %s references out-of-range row %d of table 0x%02x", sch.Name, rn+1, c.Name, rowNumber, byte(target))
					}
				}
			}
		}
	}
	return nil
}
