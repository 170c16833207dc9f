// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build gocv

package detect

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// SSD MobileNet preprocessing.
const (
	ssdInputSize = 320
	ssdScale     = 1.0 / 127.5
	ssdMean      = 127.5
)

// GoCVClassifier runs an SSD MobileNet model in-process through OpenCV DNN.
type GoCVClassifier struct {
	mu  sync.Mutex
	net gocv.Net
}

// NewGoCVClassifier loads model (weights) and config (graph description).
func NewGoCVClassifier(model, config string) (Classifier, error) {
	net := gocv.ReadNet(model, config)
	if net.Empty() {
		return nil, fmt.Errorf("load model %s: empty network", model)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	return &GoCVClassifier{net: net}, nil
}

// Detect runs one forward pass. The network output has rows of
// [batch, class, confidence, x1, y1, x2, y2] with normalised coordinates.
func (c *GoCVClassifier) Detect(ctx context.Context, img image.Image, threshold float64) ([]Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer func() { _ = mat.Close() }()

	blob := gocv.BlobFromImage(mat, ssdScale, image.Pt(ssdInputSize, ssdInputSize),
		gocv.NewScalar(ssdMean, ssdMean, ssdMean, 0), true, false)
	defer func() { _ = blob.Close() }()

	c.mu.Lock()
	c.net.SetInput(blob, "")
	prob := c.net.Forward("")
	c.mu.Unlock()
	defer func() { _ = prob.Close() }()

	cols, rows := float64(mat.Cols()), float64(mat.Rows())
	var out []Raw
	for i := 0; i+6 < prob.Total(); i += 7 {
		conf := float64(prob.GetFloatAt(0, i+2))
		if conf < threshold {
			continue
		}
		x1 := float64(prob.GetFloatAt(0, i+3)) * cols
		y1 := float64(prob.GetFloatAt(0, i+4)) * rows
		x2 := float64(prob.GetFloatAt(0, i+5)) * cols
		y2 := float64(prob.GetFloatAt(0, i+6)) * rows
		out = append(out, Raw{
			ClassIndex: int(prob.GetFloatAt(0, i+1)),
			Confidence: conf,
			Box:        []float64{x1, y1, x2 - x1, y2 - y1},
		})
	}
	return out, nil
}

// Name implements Classifier.
func (c *GoCVClassifier) Name() string { return "gocv" }

// Close frees the network.
func (c *GoCVClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}
