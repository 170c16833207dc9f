// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/resilience"
	"github.com/ManuGH/motioncam/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// Options tune a Service.
type Options struct {
	// MaxRPS caps classifier calls per second across all cameras. 0 disables the cap.
	MaxRPS float64
	// BreakerThreshold consecutive failures open the breaker. 0 disables it.
	BreakerThreshold int
	BreakerReset     time.Duration
	Clock            resilience.Clock
}

// Service is the process-wide classifier. It is created once with Init or
// NewService, shared by reference, and stopped with Shutdown.
type Service struct {
	classifier Classifier
	labels     Labels
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	tracer     trace.Tracer
	logger     zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Init builds the backend selected by cfg and loads its labels.
func Init(cfg config.ClassifierConfig) (*Service, error) {
	opts := Options{
		MaxRPS:           cfg.MaxRPS,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerReset:     cfg.BreakerReset,
	}
	if cfg.Backend == config.BackendNone {
		return NewService(nil, nil, opts), nil
	}

	labels, err := LoadLabels(cfg.Labels)
	if err != nil {
		return nil, err
	}

	var c Classifier
	switch cfg.Backend {
	case config.BackendHTTP:
		c = NewHTTPClassifier(cfg.Endpoint, cfg.Timeout)
	case config.BackendGoCV:
		if c, err = NewGoCVClassifier(cfg.Model, cfg.ModelConfig); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, cfg.Backend)
	}
	return NewService(c, labels, opts), nil
}

// NewService wraps c. A nil classifier yields a service whose every call
// reports OutcomeDisabled.
func NewService(c Classifier, labels Labels, opts Options) *Service {
	s := &Service{
		classifier: c,
		labels:     labels,
		tracer:     telemetry.Tracer("motioncam/detect"),
		logger:     log.WithComponent("detect"),
	}
	if opts.MaxRPS > 0 {
		burst := max(int(opts.MaxRPS), 1)
		s.limiter = rate.NewLimiter(rate.Limit(opts.MaxRPS), burst)
	}
	if opts.BreakerThreshold > 0 {
		var bopts []resilience.Option
		if opts.Clock != nil {
			bopts = append(bopts, resilience.WithClock(opts.Clock))
		}
		s.breaker = resilience.NewCircuitBreaker("classifier", opts.BreakerThreshold, opts.BreakerReset, bopts...)
	}
	if c != nil {
		s.logger.Info().
			Str(log.FieldEvent, "detect.ready").
			Str("backend", c.Name()).
			Int("labels", len(labels)).
			Msg("classifier ready")
	}
	return s
}

// Backend names the active backend.
func (s *Service) Backend() string {
	if s == nil || s.classifier == nil {
		return config.BackendNone
	}
	return s.classifier.Name()
}

// Labels returns the loaded label table.
func (s *Service) Labels() Labels {
	return s.labels
}

// Detect classifies img and never fails: problems are reported through
// Result.Outcome.
func (s *Service) Detect(ctx context.Context, img image.Image, threshold float64) Result {
	res := s.detect(ctx, img, threshold)
	metrics.IncDetectionOutcome(string(res.Outcome))
	for _, d := range res.Detections {
		metrics.IncDetection(d.Label)
	}
	return res
}

func (s *Service) detect(ctx context.Context, img image.Image, threshold float64) Result {
	if s == nil || s.classifier == nil {
		return Result{Outcome: OutcomeDisabled}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Result{Outcome: OutcomeUnavailable}
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return Result{Outcome: OutcomeThrottled}
	}

	ctx, span := s.tracer.Start(ctx, "detect.frame",
		trace.WithAttributes(telemetry.DetectAttributes(s.classifier.Name(), threshold)...))
	defer span.End()

	var raw []Raw
	var callErr error
	call := func() error {
		raw, callErr = s.classifier.Detect(ctx, img, threshold)
		if callErr != nil && ctx.Err() != nil {
			// cancellation is not the backend's fault
			return nil
		}
		return callErr
	}

	start := time.Now()
	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(call)
	} else {
		err = call()
	}
	metrics.ObserveDetection(s.classifier.Name(), time.Since(start))

	if errors.Is(err, resilience.ErrCircuitOpen) {
		span.SetAttributes(attribute.String(telemetry.DetectOutcomeKey, string(OutcomeUnavailable)))
		return Result{Outcome: OutcomeUnavailable, Err: err}
	}
	if callErr != nil {
		span.RecordError(callErr)
		span.SetStatus(codes.Error, callErr.Error())
		return Result{Outcome: OutcomeFailed, Err: callErr}
	}

	dets, malformed := Interpret(raw, s.labels, img.Bounds())
	res := Result{Detections: dets, Malformed: malformed}
	switch {
	case len(raw) == 0:
		res.Outcome = OutcomeEmpty
	case len(dets) == 0:
		res.Outcome = OutcomeMalformed
	default:
		res.Outcome = OutcomeOK
	}
	span.SetAttributes(
		attribute.String(telemetry.DetectOutcomeKey, string(res.Outcome)),
		attribute.Int(telemetry.DetectCountKey, len(dets)),
	)
	return res
}

// Shutdown closes the backend. Later Detect calls report OutcomeUnavailable.
func (s *Service) Shutdown() error {
	if s == nil || s.classifier == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info().Str(log.FieldEvent, "detect.shutdown").Msg("classifier stopped")
	return s.classifier.Close()
}
