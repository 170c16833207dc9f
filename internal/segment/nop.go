// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package segment

import "image"

// Nop accepts frames and writes nothing. It is used in debug mode and when a
// segment file could not be created.
type Nop struct {
	path   string
	frames int
}

// NewNop returns a writer that pretends to record into path.
func NewNop(path string) *Nop { return &Nop{path: path} }

func (n *Nop) Write(*image.Gray) error { n.frames++; return nil }
func (n *Nop) Finalize() error         { return nil }
func (n *Nop) Discard() error          { return nil }
func (n *Nop) Path() string            { return n.path }
func (n *Nop) Frames() int             { return n.frames }

// NopFactory opens Nop writers.
type NopFactory struct{}

func (NopFactory) Open(path string, _ image.Point, _ int) (Writer, error) {
	return NewNop(path), nil
}
