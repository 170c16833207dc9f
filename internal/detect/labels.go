// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package detect

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Labels maps 1-based class indices to names.
type Labels []string

// LoadLabels reads a label file, one label per line. Line 1 is class index 1.
func LoadLabels(path string) (Labels, error) {
	// #nosec G304 -- label path is operator configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseLabels(f)
}

// ParseLabels reads labels from r. Blank lines keep their index so the file
// can mirror a model's sparse class table.
func ParseLabels(r io.Reader) (Labels, error) {
	var labels Labels
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		labels = append(labels, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	for len(labels) > 0 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("label file is empty")
	}
	return labels, nil
}

// Lookup resolves a 1-based class index. Unknown or blank entries return false.
func (l Labels) Lookup(classIndex int) (string, bool) {
	if classIndex < 1 || classIndex > len(l) {
		return "", false
	}
	name := l[classIndex-1]
	return name, name != ""
}
