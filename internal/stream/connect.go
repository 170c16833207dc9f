// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ManuGH/motioncam/internal/ffmpeg"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/procgroup"
	"github.com/rs/zerolog"
)

// Opener opens one stream URL.
type Opener interface {
	Open(ctx context.Context, url string) (Source, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, url string) (Source, error)

func (f OpenerFunc) Open(ctx context.Context, url string) (Source, error) { return f(ctx, url) }

// FFmpegOptions configures FFmpegOpener.
type FFmpegOptions struct {
	Bin       string
	ProbeBin  string
	FPS       int
	Timeout   time.Duration
	KillGrace time.Duration
	Realtime  bool
	Camera    string
}

// FFmpegOpener probes a URL with ffprobe and decodes it with ffmpeg.
type FFmpegOpener struct {
	opts FFmpegOptions
}

// NewFFmpegOpener creates an opener.
func NewFFmpegOpener(opts FFmpegOptions) *FFmpegOpener {
	if opts.Bin == "" {
		opts.Bin = "ffmpeg"
	}
	if opts.KillGrace <= 0 {
		opts.KillGrace = 2 * time.Second
	}
	return &FFmpegOpener{opts: opts}
}

// Open probes url for its frame size, then starts the decoder.
func (o *FFmpegOpener) Open(ctx context.Context, url string) (Source, error) {
	probeCtx := ctx
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, 2*o.opts.Timeout)
		defer cancel()
	}
	info, err := ffmpeg.Probe(probeCtx, o.opts.ProbeBin, url, o.opts.Timeout)
	if err != nil {
		return nil, err
	}

	proc, err := ffmpeg.Start(ffmpeg.Spec{
		Bin:    o.opts.Bin,
		Args:   ffmpeg.DecodeArgs(ffmpeg.DecodeOptions{URL: url, FPS: o.opts.FPS, Timeout: o.opts.Timeout}),
		Role:   "decoder",
		Stdout: true,
	})
	if err != nil {
		return nil, err
	}

	grace := o.opts.KillGrace
	closer := func() error {
		err := proc.Stop(grace)
		if errors.Is(err, procgroup.ErrKillFailed) {
			return err
		}
		// the decoder is expected to die from our signal
		return nil
	}
	size := image.Pt(info.Width, info.Height)
	if o.opts.Realtime {
		return NewFreshestSource(proc.Stdout(), size, closer, o.opts.Camera), nil
	}
	return NewSyncSource(proc.Stdout(), size, closer, o.opts.Camera), nil
}

// Connector tries candidate addresses in order.
type Connector struct {
	opener   Opener
	template string
	logger   zerolog.Logger
}

// NewConnector creates a connector that builds URLs from template.
func NewConnector(opener Opener, template, camera string) *Connector {
	return &Connector{
		opener:   opener,
		template: template,
		logger:   log.WithCamera(camera),
	}
}

// Connect opens the first candidate that works and returns it with its
// address. When none does, the error wraps ErrConnect and every candidate's
// failure.
func (c *Connector) Connect(ctx context.Context, candidates []string, credential string) (Source, string, error) {
	if len(candidates) == 0 {
		return nil, "", fmt.Errorf("%w: no candidate addresses", ErrConnect)
	}
	errs := make([]error, 0, len(candidates))
	for _, addr := range candidates {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		src, err := c.opener.Open(ctx, BuildURL(c.template, addr, credential))
		if err != nil {
			c.logger.Debug().
				Err(err).
				Str(log.FieldEvent, "stream.candidate_failed").
				Str(log.FieldAddress, addr).
				Msg("candidate did not open")
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}
		return src, addr, nil
	}
	return nil, "", fmt.Errorf("%w: %w", ErrConnect, errors.Join(errs...))
}
