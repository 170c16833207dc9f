// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package vision

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Box is a labelled rectangle to draw on a frame.
type Box struct {
	Rect       image.Rectangle
	Label      string
	Confidence float64
	Highlight  bool
}

var (
	colorHighlight = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	colorDefault   = color.RGBA{R: 255, G: 200, B: 0, A: 255}
	colorText      = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

const boxThickness = 2

// Annotate returns a copy of f with every box and its label drawn on it.
// Boxes are clipped to the frame; boxes entirely outside are skipped.
func Annotate(f *Frame, boxes []Box) *Frame {
	out := f.Clone()
	if len(boxes) == 0 {
		return out
	}
	bounds := out.Image.Rect
	face := basicfont.Face7x13

	for _, b := range boxes {
		r := b.Rect.Canon().Intersect(bounds)
		if r.Empty() {
			continue
		}
		c := colorDefault
		if b.Highlight {
			c = colorHighlight
		}
		strokeRect(out.Image, r, c)

		text := fmt.Sprintf("%s: %.2f", b.Label, b.Confidence)
		width := font.MeasureString(face, text).Ceil() + 4
		height := face.Metrics().Height.Ceil() + 2

		top := r.Min.Y - height
		if top < bounds.Min.Y {
			top = r.Min.Y
		}
		label := image.Rect(r.Min.X, top, r.Min.X+width, top+height).Intersect(bounds)
		draw.Draw(out.Image, label, image.NewUniform(c), image.Point{}, draw.Src)

		d := &font.Drawer{
			Dst:  out.Image,
			Src:  image.NewUniform(colorText),
			Face: face,
			Dot:  fixed.P(label.Min.X+2, label.Min.Y+face.Metrics().Ascent.Ceil()+1),
		}
		d.DrawString(text)
	}
	return out
}

func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color) {
	u := image.NewUniform(c)
	t := boxThickness
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), u, image.Point{}, draw.Src)
	}
}
