// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resolver

import "context"

// Static resolves from a fixed table.
type Static struct {
	table map[string][]string
}

// NewStatic copies table with normalised keys.
func NewStatic(table map[string][]string) *Static {
	t := make(map[string][]string, len(table))
	for mac, addrs := range table {
		t[NormalizeMAC(mac)] = append([]string(nil), addrs...)
	}
	return &Static{table: t}
}

func (s *Static) Resolve(_ context.Context, mac string) ([]string, error) {
	return append([]string(nil), s.table[NormalizeMAC(mac)]...), nil
}

func (s *Static) Name() string { return "static" }
