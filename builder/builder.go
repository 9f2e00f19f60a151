// Package builder implements the two-pass prepare/write pipeline that
// re-emits a metadata directory from an in-memory image: sorting the tables
// ECMA-335 requires sorted, freezing column widths against the final table
// cardinalities and heap sizes (iterating until the widths stop moving), and
// assembling the storage-signature root, stream headers, and stream bodies.
package builder

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

// Builder drives the prepare/write pipeline for one image.
type Builder struct {
	img    *model.Image
	logger *zap.Logger
}

// New returns a Builder for img. A nil logger falls back to zap.NewNop(),
// matching how the CLI wires a real logger while tests stay silent.
func New(img *model.Image, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{img: img, logger: logger}
}

// Prepare sorts every ECMA-335-mandated table by its declared key column.
// Token reservation and heap interning happen earlier, as rows and heap
// entries are appended through the object model; Prepare's remaining job is
// purely the ordering pass that must run before column widths are frozen.
func (b *Builder) Prepare() error {
	return sortMandatedTables(b.img.Rows)
}

// converge recomputes column widths until two consecutive rounds agree, or
// reports errs.ErrBadImageFormat if they never settle within the defensive
// iteration cap.
func converge(tables map[schema.TableIndex]schema.TableSchema, card schema.Cardinalities, heaps schema.HeapSizes) (schema.Widths, error) {
	widths := schema.Compute(tables, card, heaps)
	for i := 1; i < schema.MaxConvergenceIterations(); i++ {
		next := schema.Compute(tables, card, heaps)
		if next.Equal(widths) {
			return widths, nil
		}
		widths = next
	}
	return schema.Widths{}, fmt.Errorf("builder: column widths did not converge after %d rounds: %w", schema.MaxConvergenceIterations(), errs.ErrBadImageFormat)
}

// Write runs Prepare, freezes column widths (retrying until they converge or
// the defensive iteration cap is hit), and returns the assembled metadata
// directory byte stream.
func (b *Builder) Write() ([]byte, error) {
	if err := b.Prepare(); err != nil {
		return nil, err
	}

	tables := schema.Tables()
	card := b.img.Rows.Cardinalities()
	heaps := schema.HeapSizes{
		Strings:     b.img.Strings.Len(),
		UserStrings: b.img.UserStrings.Len(),
		Blob:        b.img.Blobs.Len(),
		GUID:        b.img.GUIDs.Len() * 16,
	}

	widths, err := converge(tables, card, heaps)
	if err != nil {
		return nil, err
	}

	tableStream, err := writeTableStream(b.img.Rows, tables, widths)
	if err != nil {
		return nil, err
	}

	streams := []namedStream{
		{name: "#~", body: tableStream},
		{name: "#Strings", body: b.img.Strings.CreateStream()},
		{name: "#US", body: b.img.UserStrings.CreateStream()},
		{name: "#GUID", body: b.img.GUIDs.CreateStream()},
		{name: "#Blob", body: b.img.Blobs.CreateStream()},
	}

	out, err := writeMetadataRoot(streams)
	if err != nil {
		b.logger.Warn("builder: write failed", zap.Error(err))
		return nil, err
	}
	b.logger.Info("builder: wrote metadata directory",
		zap.Int("bytes", len(out)),
		zap.Int("tables", len(card)),
	)
	return out, nil
}
