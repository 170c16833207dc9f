// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package stream opens camera video streams and hands out decoded frames.
//
// A Source is either synchronous (each NextFrame reads one frame from the
// decoder) or freshest-frame: a producer goroutine drains the decoder into a
// single slot and NextFrame returns the newest frame without blocking.
package stream

import (
	"errors"
	"fmt"
	"image"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/motioncam/internal/vision"
)

var (
	// ErrConnect is returned when no candidate address could be opened.
	ErrConnect = errors.New("cannot open video stream")
	// ErrRead marks a mid-stream read failure, including end of stream.
	ErrRead = errors.New("stream read failed")
)

// DefaultURLTemplate is the ONVIF RTSP path of the supported cameras.
const DefaultURLTemplate = "rtsp://admin:{password}@{address}:554/onvif1"

// Source delivers decoded frames from one connected stream.
type Source interface {
	// NextFrame returns the next frame. ok is false when no frame is
	// available; callers tell an idle tick from a failure with Healthy.
	NextFrame() (f *vision.Frame, ok bool)
	// Healthy is false after a read failure or Release. It never turns true again.
	Healthy() bool
	// Size is the decoded frame size.
	Size() image.Point
	// Release stops decoding and frees the stream. It is idempotent.
	Release() error
}

// BuildURL fills {address} and {password} in template. The credential is
// escaped for the userinfo part of a URL.
func BuildURL(template, address, credential string) string {
	if template == "" {
		template = DefaultURLTemplate
	}
	return strings.NewReplacer(
		"{address}", address,
		"{password}", escapeUserinfo(credential),
	).Replace(template)
}

func escapeUserinfo(s string) string {
	return strings.TrimPrefix(url.UserPassword("u", s).String(), "u:")
}

// frameReader reads packed RGBA frames of a fixed size. Each read allocates a
// fresh buffer, so a returned frame is never written to again.
type frameReader struct {
	r    io.Reader
	size image.Point
	seq  uint64
	now  func() time.Time
}

func newFrameReader(r io.Reader, size image.Point) *frameReader {
	return &frameReader{r: r, size: size, now: time.Now}
}

func (fr *frameReader) read() (*vision.Frame, error) {
	buf := make([]byte, vision.FrameBytes(fr.size))
	if _, err := io.ReadFull(fr.r, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	fr.seq++
	return vision.NewFrame(buf, fr.size.X, fr.size.Y, fr.seq, fr.now())
}
