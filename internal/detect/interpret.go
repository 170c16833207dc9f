// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package detect

import (
	"image"
	"math"
)

// Interpret converts raw backend output into detections. Entries with an
// unknown class, a confidence outside [0, 1], or a box that is not four finite
// numbers with positive size inside bounds are counted as malformed and
// skipped. Boxes are clipped to bounds.
func Interpret(raw []Raw, labels Labels, bounds image.Rectangle) ([]Detection, int) {
	if len(raw) == 0 {
		return nil, 0
	}
	dets := make([]Detection, 0, len(raw))
	malformed := 0
	for _, r := range raw {
		d, ok := interpretOne(r, labels, bounds)
		if !ok {
			malformed++
			continue
		}
		dets = append(dets, d)
	}
	return dets, malformed
}

func interpretOne(r Raw, labels Labels, bounds image.Rectangle) (Detection, bool) {
	label, ok := labels.Lookup(r.ClassIndex)
	if !ok {
		return Detection{}, false
	}
	if math.IsNaN(r.Confidence) || r.Confidence < 0 || r.Confidence > 1 {
		return Detection{}, false
	}
	if len(r.Box) != 4 {
		return Detection{}, false
	}
	for _, v := range r.Box {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Detection{}, false
		}
	}
	x, y, w, h := r.Box[0], r.Box[1], r.Box[2], r.Box[3]
	if w <= 0 || h <= 0 {
		return Detection{}, false
	}
	box := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	).Intersect(bounds)
	if box.Empty() {
		return Detection{}, false
	}
	return Detection{
		Label:      label,
		ClassIndex: r.ClassIndex,
		Confidence: r.Confidence,
		Box:        box,
	}, true
}
