// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DecodeOptions describes how a camera stream is decoded to raw frames.
type DecodeOptions struct {
	URL     string
	FPS     int
	Timeout time.Duration
}

// DecodeArgs returns the ffmpeg arguments that decode URL into RGBA frames on
// stdout. Input buffering is disabled so at most one decoded frame is pending.
func DecodeArgs(o DecodeOptions) []string {
	args := []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
	args = append(args, inputOptions(o.URL, o.Timeout)...)
	args = append(args,
		"-fflags", "nobuffer",
		"-flags", "low_delay",
		"-i", o.URL,
		"-an",
	)
	if o.FPS > 0 {
		args = append(args, "-vf", "fps="+strconv.Itoa(o.FPS))
	}
	args = append(args, "-f", "rawvideo", "-pix_fmt", "rgba", "pipe:1")
	return args
}

// EncodeOptions describes a segment encode.
type EncodeOptions struct {
	Width  int
	Height int
	FPS    int
	Output string
}

// EncodeArgs returns the ffmpeg arguments that encode grayscale frames read
// from stdin into an XVID AVI file.
func EncodeArgs(o EncodeOptions) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-s", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-r", strconv.Itoa(o.FPS),
		"-i", "pipe:0",
		"-c:v", "mpeg4",
		"-vtag", "XVID",
		"-q:v", "5",
		"-pix_fmt", "yuv420p",
		"-y", o.Output,
	}
}

// ProbeArgs returns the ffprobe arguments that describe the first video stream.
func ProbeArgs(url string, timeout time.Duration) []string {
	args := []string{"-v", "error"}
	args = append(args, inputOptions(url, timeout)...)
	args = append(args,
		"-select_streams", "v:0",
		"-show_entries", "stream=codec_name,width,height,avg_frame_rate",
		"-of", "json",
		url,
	)
	return args
}

func inputOptions(url string, timeout time.Duration) []string {
	if !strings.HasPrefix(url, "rtsp://") && !strings.HasPrefix(url, "rtsps://") {
		return nil
	}
	opts := []string{"-rtsp_transport", "tcp"}
	if timeout > 0 {
		opts = append(opts, "-timeout", strconv.FormatInt(timeout.Microseconds(), 10))
	}
	return opts
}
