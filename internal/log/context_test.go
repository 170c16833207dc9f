// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithContextAddsCorrelationFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithCamera(ctx, "garage")

	l := WithContext(ctx, base)
	l.Info().Msg("m")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "garage", entry[FieldCamera])
}

func TestWithContextWithoutValues(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	//nolint:staticcheck // nil context is part of the contract
	l := WithContext(nil, base)
	l.Info().Msg("m")

	entry := decodeLast(t, &buf)
	_, ok := entry[FieldRequestID]
	assert.False(t, ok)
}

func TestFromContextFallsBackToBase(t *testing.T) {
	l := FromContext(context.Background())
	assert.NotNil(t, l)
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())

	custom := zerolog.New(&bytes.Buffer{}).Level(zerolog.WarnLevel)
	ctx := custom.WithContext(context.Background())
	assert.Equal(t, zerolog.WarnLevel, FromContext(ctx).GetLevel())
}
