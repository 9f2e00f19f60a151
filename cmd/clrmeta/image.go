package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/clrmeta/clrmeta/metadata"
	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/pecontainer"
)

// loadImageFile reads path, locates its CLI metadata root, and parses it
// into an Image. Every failure is logged at warn level before it propagates,
// matching the CLI boundary's logging policy.
func loadImageFile(path string) (*model.Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read file", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	loc, err := pecontainer.MetadataLocator(raw)
	if err != nil {
		logger.Warn("failed to locate metadata root", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("locating metadata root in %s: %w", path, err)
	}

	root := raw[loc.Offset : loc.Offset+loc.Size]
	img, err := metadata.Load(root)
	if err != nil {
		logger.Warn("failed to parse metadata directory", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("parsing metadata directory in %s: %w", path, err)
	}
	return img, nil
}
