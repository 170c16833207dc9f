// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package camera

import "time"

// Status is a point-in-time view of a session.
type Status struct {
	Name           string    `json:"name"`
	MAC            string    `json:"mac"`
	State          State     `json:"state"`
	Address        string    `json:"address,omitempty"`
	SegmentIndex   int       `json:"segment_index"`
	SegmentPath    string    `json:"segment_path,omitempty"`
	SegmentStarted time.Time `json:"segment_started,omitzero"`
	Frames         uint64    `json:"frames"`
	Keep           bool      `json:"keep"`
	RetryCount     int       `json:"retry_count"`
	Attempts       int       `json:"attempts"`
	LastFrameAt    time.Time `json:"last_frame_at,omitzero"`
	Realtime       bool      `json:"realtime"`
	Debug          bool      `json:"debug"`
}

// Status returns the latest snapshot. Safe for concurrent use.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// publish refreshes the snapshot. Called by the driving goroutine only.
func (s *Session) publish() {
	st := Status{
		Name:         s.cfg.Name,
		MAC:          s.cfg.MAC,
		State:        StateDisconnected,
		Address:      s.address,
		SegmentIndex: s.index,
		Frames:       s.frameCount,
		Keep:         s.keep,
		RetryCount:   s.retryCount,
		Attempts:     s.attemptCount,
		LastFrameAt:  s.lastFrameAt,
		Realtime:     s.cfg.Realtime,
		Debug:        s.cfg.Debug,
	}
	if s.ready {
		st.State = StateConnected
	}
	if s.writer != nil {
		st.SegmentPath = s.segPath
		st.SegmentStarted = s.segStart
	}
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}
