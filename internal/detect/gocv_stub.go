// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build !gocv

package detect

import "fmt"

// NewGoCVClassifier is only available in binaries built with -tags gocv.
func NewGoCVClassifier(model, _ string) (Classifier, error) {
	return nil, fmt.Errorf("%w: gocv support not compiled in (model %s)", ErrBackendUnavailable, model)
}
