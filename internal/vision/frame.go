// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package vision holds the frame type shared by capture, recording and
// detection, and the image operations applied to it.
package vision

import (
	"fmt"
	"image"
	"time"
)

// Frame is one decoded camera picture. A published frame is never mutated;
// operations that change pixels work on a copy.
type Frame struct {
	Image      *image.RGBA
	Seq        uint64
	CapturedAt time.Time
}

// NewFrame wraps a packed RGBA buffer of exactly width*height*4 bytes. The
// frame takes ownership of pix.
func NewFrame(pix []byte, width, height int, seq uint64, at time.Time) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("frame buffer is %d bytes, want %d", len(pix), width*height*4)
	}
	return &Frame{
		Image: &image.RGBA{
			Pix:    pix,
			Stride: width * 4,
			Rect:   image.Rect(0, 0, width, height),
		},
		Seq:        seq,
		CapturedAt: at,
	}, nil
}

// FrameBytes returns the size of one packed RGBA frame.
func FrameBytes(size image.Point) int {
	return size.X * size.Y * 4
}

// Size returns the frame dimensions.
func (f *Frame) Size() image.Point {
	return f.Image.Rect.Size()
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	img := image.NewRGBA(f.Image.Rect)
	copy(img.Pix, f.Image.Pix)
	return &Frame{Image: img, Seq: f.Seq, CapturedAt: f.CapturedAt}
}
