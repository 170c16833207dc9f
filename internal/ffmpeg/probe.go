// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/procgroup"
)

// ErrNoVideo is returned when ffprobe finds no usable video stream.
var ErrNoVideo = errors.New("no video stream")

// VideoInfo describes the first video stream of a source.
type VideoInfo struct {
	Codec  string
	Width  int
	Height int
	FPS    float64
}

type probeData struct {
	Streams []struct {
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe against url. ctx bounds the whole probe; the ffprobe
// process group is killed when ctx ends.
func Probe(ctx context.Context, bin, url string, timeout time.Duration) (VideoInfo, error) {
	if bin == "" {
		bin = "ffprobe"
	}
	// #nosec G204 -- ffprobe path comes from config; args are built from fixed templates
	cmd := exec.CommandContext(ctx, bin, ProbeArgs(url, timeout)...)
	procgroup.Set(cmd)
	cmd.Cancel = func() error {
		return procgroup.Kill(cmd, syscall.SIGKILL)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		metrics.IncProcStart("probe", "error")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return VideoInfo{}, fmt.Errorf("ffprobe: %w", ctxErr)
		}
		return VideoInfo{}, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, truncate(stderr.String(), 1024))
	}
	metrics.IncProcStart("probe", "ok")
	return ParseProbe(out)
}

// ParseProbe decodes ffprobe JSON output.
func ParseProbe(out []byte) (VideoInfo, error) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return VideoInfo{}, fmt.Errorf("json decode: %w", err)
	}
	for _, s := range data.Streams {
		if s.Width <= 0 || s.Height <= 0 {
			continue
		}
		return VideoInfo{
			Codec:  s.CodecName,
			Width:  s.Width,
			Height: s.Height,
			FPS:    parseRate(s.AvgFrameRate),
		}, nil
	}
	return VideoInfo{}, ErrNoVideo
}

func parseRate(rate string) float64 {
	if rate == "" || rate == "0/0" {
		return 0
	}
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
