// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package segment writes recorded footage to short video files.
package segment

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrStorage marks a failure to create, write or delete a segment file.
	ErrStorage = errors.New("segment storage failure")
	// ErrClosed is returned by Write after Finalize or Discard.
	ErrClosed = errors.New("segment writer closed")
)

// Ext is the container extension of every segment.
const Ext = ".avi"

// Writer appends grayscale frames to one segment.
type Writer interface {
	Write(img *image.Gray) error
	// Finalize flushes and closes the file, keeping it.
	Finalize() error
	// Discard stops writing and deletes the file. Calling it again, after
	// Finalize, or when the file was never created returns nil.
	Discard() error
	Path() string
	Frames() int
}

// Factory opens segment writers.
type Factory interface {
	Open(path string, size image.Point, fps int) (Writer, error)
}

// Filename returns "{camera}-segment{index}-{DD_MM_YYYY-HH_MM}.avi".
func Filename(camera string, index int, at time.Time) string {
	return fmt.Sprintf("%s-segment%d-%s%s", SafeName(camera), index, at.Format("02_01_2006-15_04"), Ext)
}

// SafeName makes a camera name usable as a file name prefix: diacritics are
// folded and path separators and control characters become '_'. Plain ASCII
// names without separators come back unchanged.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
		case r == '/' || r == '\\' || r == ':' || unicode.IsControl(r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	s := norm.NFC.String(b.String())
	if s == "" || s == "." || s == ".." {
		return "camera"
	}
	return s
}
