// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// ScaledSize returns size multiplied by scale, rounded down to even
// dimensions (yuv420p needs both to be even) and never below 2x2.
func ScaledSize(size image.Point, scale float64) image.Point {
	w := int(float64(size.X)*scale) &^ 1
	h := int(float64(size.Y)*scale) &^ 1
	return image.Pt(max(w, 2), max(h, 2))
}

// Reduce downscales src to size and converts it to single-channel grayscale.
func Reduce(src image.Image, size image.Point) *image.Gray {
	dst := image.NewGray(image.Rectangle{Max: size})
	if src.Bounds().Size() == size {
		draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	return dst
}

// Resize scales a grayscale image to size. It returns src unchanged when the
// size already matches.
func Resize(src *image.Gray, size image.Point) *image.Gray {
	if src.Rect.Size() == size {
		return src
	}
	dst := image.NewGray(image.Rectangle{Max: size})
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}
