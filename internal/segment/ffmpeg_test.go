// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package segment

import (
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/motioncam/internal/ffmpeg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available", name)
	}
	return p
}

// catWriter stands in for the encoder: it consumes stdin and exits on EOF.
func catWriter(t *testing.T, path string, size image.Point) *ffmpegWriter {
	t.Helper()
	proc, err := ffmpeg.Start(ffmpeg.Spec{Bin: lookPath(t, "cat"), Role: "encoder", Stdin: true})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("partial"), 0o600))
	return &ffmpegWriter{path: path, size: size, proc: proc, grace: time.Second}
}

func TestFFmpegWriter_DiscardIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "cam-segment1.avi")
	w := catWriter(t, path, image.Pt(4, 2))

	require.NoError(t, w.Write(image.NewGray(image.Rect(0, 0, 4, 2))))
	require.NoError(t, w.Discard())
	assert.NoFileExists(t, path)

	require.NoError(t, w.Discard())
	require.NoError(t, w.Finalize())
	assert.ErrorIs(t, w.Write(image.NewGray(image.Rect(0, 0, 4, 2))), ErrClosed)
}

func TestFFmpegWriter_DiscardAfterFinalize(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "cam-segment1.avi")
	w := catWriter(t, path, image.Pt(4, 2))

	require.NoError(t, w.Write(image.NewGray(image.Rect(0, 0, 4, 2))))
	require.NoError(t, w.Finalize())
	assert.FileExists(t, path)
	require.NoError(t, w.Discard())
	assert.NoFileExists(t, path)
}

func TestFFmpegWriter_ResizesAndCopiesSubImages(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "cam-segment1.avi")
	w := catWriter(t, path, image.Pt(4, 2))

	big := image.NewGray(image.Rect(0, 0, 8, 8))
	require.NoError(t, w.Write(big))
	sub := big.SubImage(image.Rect(2, 2, 6, 4)).(*image.Gray)
	require.NoError(t, w.Write(sub))
	assert.Equal(t, 2, w.Frames())
	require.NoError(t, w.Finalize())
}

func TestFFmpegFactory_EncodesSegment(t *testing.T) {
	defer goleak.VerifyNone(t)
	bin := lookPath(t, "ffmpeg")
	path := filepath.Join(t.TempDir(), "nested", "cam-segment1.avi")

	w, err := FFmpegFactory{Bin: bin, KillGrace: 5 * time.Second}.Open(path, image.Pt(32, 16), 10)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		img := image.NewGray(image.Rect(0, 0, 32, 16))
		for j := range img.Pix {
			img.Pix[j] = uint8(i * 20)
		}
		require.NoError(t, w.Write(img))
	}
	require.NoError(t, w.Finalize())

	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
}

func TestFFmpegFactory_EmptySegmentLeavesNoFile(t *testing.T) {
	defer goleak.VerifyNone(t)
	bin := lookPath(t, "ffmpeg")
	path := filepath.Join(t.TempDir(), "cam-segment1.avi")

	w, err := FFmpegFactory{Bin: bin}.Open(path, image.Pt(32, 16), 10)
	require.NoError(t, err)
	require.NoError(t, w.Finalize())
	assert.NoFileExists(t, path)
}

func TestFFmpegFactory_MissingBinary(t *testing.T) {
	_, err := FFmpegFactory{Bin: filepath.Join(t.TempDir(), "no-ffmpeg")}.Open(filepath.Join(t.TempDir(), "x.avi"), image.Pt(2, 2), 10)
	require.ErrorIs(t, err, ErrStorage)
}
