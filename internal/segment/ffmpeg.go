// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package segment

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/motioncam/internal/ffmpeg"
	"github.com/ManuGH/motioncam/internal/vision"
)

// FFmpegFactory encodes segments with an ffmpeg child process per segment.
type FFmpegFactory struct {
	Bin       string
	KillGrace time.Duration
}

// Open creates the segment's directory and starts the encoder.
func (f FFmpegFactory) Open(path string, size image.Point, fps int) (Writer, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("%w: invalid frame size %v", ErrStorage, size)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	bin := f.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	grace := f.KillGrace
	if grace <= 0 {
		grace = 2 * time.Second
	}

	proc, err := ffmpeg.Start(ffmpeg.Spec{
		Bin:   bin,
		Args:  ffmpeg.EncodeArgs(ffmpeg.EncodeOptions{Width: size.X, Height: size.Y, FPS: fps, Output: path}),
		Role:  "encoder",
		Stdin: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &ffmpegWriter{path: path, size: size, proc: proc, grace: grace}, nil
}

type ffmpegWriter struct {
	path  string
	size  image.Point
	proc  *ffmpeg.Process
	grace time.Duration

	mu     sync.Mutex
	frames int
	closed bool
}

func (w *ffmpegWriter) Write(img *image.Gray) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	if img.Rect.Size() != w.size {
		img = vision.Resize(img, w.size)
	}
	stdin := w.proc.Stdin()
	if img.Stride == w.size.X && len(img.Pix) == w.size.X*w.size.Y {
		if _, err := stdin.Write(img.Pix); err != nil {
			return w.writeErr(err)
		}
	} else {
		for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
			off := img.PixOffset(img.Rect.Min.X, y)
			if _, err := stdin.Write(img.Pix[off : off+w.size.X]); err != nil {
				return w.writeErr(err)
			}
		}
	}
	w.frames++
	return nil
}

func (w *ffmpegWriter) writeErr(err error) error {
	tail := w.proc.StderrTail(3)
	return fmt.Errorf("%w: write frame: %w (encoder: %v)", ErrStorage, err, tail)
}

func (w *ffmpegWriter) Finalize() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.proc.CloseAndWait(w.grace)
	if w.frames == 0 {
		// ffmpeg refuses to mux an empty input; there is nothing to keep
		return removeIfExists(w.path)
	}
	if err != nil {
		return fmt.Errorf("%w: finalize %s: %w (encoder: %v)", ErrStorage, w.path, err, w.proc.StderrTail(3))
	}
	return nil
}

func (w *ffmpegWriter) Discard() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		_ = w.proc.Stop(w.grace)
	}
	return removeIfExists(w.path)
}

func (w *ffmpegWriter) Path() string { return w.path }

func (w *ffmpegWriter) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}
