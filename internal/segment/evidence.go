// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package segment

import (
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	"github.com/ManuGH/motioncam/internal/vision"
	"github.com/google/renameio/v2"
)

// EvidencePath returns the still image path that belongs to a segment.
func EvidencePath(segmentPath string) string {
	return strings.TrimSuffix(segmentPath, filepath.Ext(segmentPath)) + ".jpg"
}

// WriteEvidence stores img next to the segment. The file appears atomically
// and is fsynced before the rename.
func WriteEvidence(segmentPath string, img image.Image) (string, error) {
	path := EvidencePath(segmentPath)
	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o640))
	if err != nil {
		return "", fmt.Errorf("%w: create evidence: %w", ErrStorage, err)
	}
	defer func() { _ = pending.Cleanup() }()

	if err := jpeg.Encode(pending, img, &jpeg.Options{Quality: vision.DefaultJPEGQuality}); err != nil {
		return "", fmt.Errorf("%w: encode evidence: %w", ErrStorage, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("%w: replace evidence: %w", ErrStorage, err)
	}
	return path, nil
}
