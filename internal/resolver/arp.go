// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resolver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultARPPath is the Linux neighbour table.
const DefaultARPPath = "/proc/net/arp"

// arpFlagComplete marks a resolved neighbour entry (ATF_COM).
const arpFlagComplete = 0x2

// ARP reads the kernel ARP table on every call.
type ARP struct {
	path string
}

// NewARP creates an ARP backend reading path.
func NewARP(path string) *ARP {
	if path == "" {
		path = DefaultARPPath
	}
	return &ARP{path: path}
}

func (a *ARP) Resolve(_ context.Context, mac string) ([]string, error) {
	// #nosec G304 -- path is operator configuration
	f, err := os.Open(a.path)
	if err != nil {
		return nil, fmt.Errorf("open arp table: %w", err)
	}
	defer func() { _ = f.Close() }()

	table, err := ParseARP(f)
	if err != nil {
		return nil, err
	}
	return table[NormalizeMAC(mac)], nil
}

func (a *ARP) Name() string { return "arp" }

// ParseARP parses /proc/net/arp. Incomplete entries are skipped.
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.1.40     0x1         0x2         a4:13:4e:00:11:22     *        eth0
func ParseARP(r io.Reader) (map[string][]string, error) {
	table := make(map[string][]string)
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		var flags int
		if _, err := fmt.Sscanf(fields[2], "0x%x", &flags); err != nil || flags&arpFlagComplete == 0 {
			continue
		}
		mac := NormalizeMAC(fields[3])
		if mac == "00:00:00:00:00:00" {
			continue
		}
		table[mac] = append(table[mac], fields[0])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read arp table: %w", err)
	}
	return table, nil
}
