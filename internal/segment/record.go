// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package segment

import "time"

// Outcome is how a segment was closed.
type Outcome string

const (
	OutcomeKept                Outcome = "kept"
	OutcomeDiscarded           Outcome = "discarded"
	OutcomeFinalizedOnShutdown Outcome = "finalized_on_shutdown"
	OutcomeFailed              Outcome = "failed"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeKept, OutcomeDiscarded, OutcomeFinalizedOnShutdown, OutcomeFailed:
		return true
	}
	return false
}

// Record describes one closed segment.
type Record struct {
	ID       string    `json:"id"`
	Camera   string    `json:"camera"`
	Index    int       `json:"index"`
	Path     string    `json:"path"`
	OpenedAt time.Time `json:"opened_at"`
	ClosedAt time.Time `json:"closed_at"`
	Outcome  Outcome   `json:"outcome"`
	Frames   int       `json:"frames"`
	Persons  int       `json:"persons"`
	Evidence string    `json:"evidence,omitempty"`
	Error    string    `json:"error,omitempty"`
}
