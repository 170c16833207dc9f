// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const camMAC = "a4:13:4e:00:11:22"

const arpTable = `IP address       HW type     Flags       HW address            Mask     Device
192.168.1.40     0x1         0x2         A4:13:4E:00:11:22     *        eth0
192.168.1.41     0x1         0x0         a4:13:4e:00:11:22     *        eth0
192.168.1.42     0x1         0x2         a4:13:4e:00:11:22     *        wlan0
192.168.1.1      0x1         0x2         00:11:22:33:44:55     *        eth0
192.168.1.9      0x1         0x2         00:00:00:00:00:00     *        eth0
`

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, camMAC, NormalizeMAC(" A4-13-4E-00-11-22 "))
	assert.Equal(t, camMAC, NormalizeMAC("A4:13:4E:00:11:22"))
	assert.Equal(t, "not-a-mac", NormalizeMAC("NOT-A-MAC"))
}

func TestParseARP(t *testing.T) {
	table, err := ParseARP(strings.NewReader(arpTable))
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.40", "192.168.1.42"}, table[camMAC])
	assert.Equal(t, []string{"192.168.1.1"}, table["00:11:22:33:44:55"])
	assert.NotContains(t, table, "00:00:00:00:00:00")
}

func TestARP_Resolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arp")
	require.NoError(t, os.WriteFile(path, []byte(arpTable), 0o600))

	addrs, err := NewARP(path).Resolve(context.Background(), "A4:13:4E:00:11:22")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.40", "192.168.1.42"}, addrs)

	_, err = NewARP(filepath.Join(t.TempDir(), "missing")).Resolve(context.Background(), camMAC)
	require.Error(t, err)
}

func TestStatic(t *testing.T) {
	s := NewStatic(map[string][]string{"A4:13:4E:00:11:22": {"10.0.0.5"}})
	addrs, err := s.Resolve(context.Background(), camMAC)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.5"}, addrs)

	addrs, err = s.Resolve(context.Background(), "00:11:22:33:44:55")
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet("motioncam:mac", camMAC, "192.168.1.40, 192.168.1.50,")

	r := NewRedis(config.RedisConfig{Addr: mr.Addr(), Key: "motioncam:mac"})
	defer func() { _ = r.Close() }()

	addrs, err := r.Resolve(context.Background(), "A4:13:4E:00:11:22")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.40", "192.168.1.50"}, addrs)

	addrs, err = r.Resolve(context.Background(), "00:11:22:33:44:55")
	require.NoError(t, err)
	assert.Empty(t, addrs)

	mr.Close()
	_, err = r.Resolve(context.Background(), camMAC)
	require.Error(t, err)
}

func TestParseLeases(t *testing.T) {
	table, err := parseLeases(strings.NewReader(
		"1700000000 a4:13:4e:00:11:22 192.168.1.40 garage *\n" +
			"0 00:11:22:33:44:55 192.168.1.1 router 01:00:11:22:33:44:55\n" +
			"garbage\n"))
	require.NoError(t, err)
	require.Len(t, table[camMAC], 1)
	assert.Equal(t, time.Unix(1700000000, 0), table[camMAC][0].expires)
	assert.True(t, table["00:11:22:33:44:55"][0].expires.IsZero())
}

func TestLeases_ExpiredEntriesIgnored(t *testing.T) {
	l := NewLeases(filepath.Join(t.TempDir(), "leases"))
	l.now = func() time.Time { return time.Unix(2000, 0) }
	l.table = map[string][]lease{
		camMAC: {{addr: "10.0.0.1", expires: time.Unix(1000, 0)}, {addr: "10.0.0.2"}, {addr: "10.0.0.3", expires: time.Unix(3000, 0)}},
	}
	addrs, err := l.Resolve(context.Background(), camMAC)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.2", "10.0.0.3"}, addrs)
}

func TestLeases_ReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	dir := t.TempDir()
	path := filepath.Join(dir, "dnsmasq.leases")
	require.NoError(t, os.WriteFile(path, []byte("0 a4:13:4e:00:11:22 192.168.1.40 cam *\n"), 0o600))

	l := NewLeases(path)
	require.NoError(t, l.Start(context.Background()))
	defer func() { _ = l.Close() }()

	addrs, err := l.Resolve(context.Background(), camMAC)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.40"}, addrs)

	tmp := filepath.Join(dir, "leases.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("0 a4:13:4e:00:11:22 192.168.1.77 cam *\n"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool {
		addrs, _ := l.Resolve(context.Background(), camMAC)
		return len(addrs) == 1 && addrs[0] == "192.168.1.77"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestLeases_MissingFileAtStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	l := NewLeases(filepath.Join(t.TempDir(), "dnsmasq.leases"))
	require.NoError(t, l.Start(context.Background()))
	defer func() { _ = l.Close() }()

	addrs, err := l.Resolve(context.Background(), camMAC)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) ([]string, error) {
	return nil, errors.New("backend down")
}
func (failingResolver) Name() string { return "failing" }

func TestChain_OrderAndDedup(t *testing.T) {
	c := NewChain(
		NewStatic(map[string][]string{camMAC: {"10.0.0.5", "10.0.0.6"}}),
		failingResolver{},
		NewStatic(map[string][]string{camMAC: {"10.0.0.6", "10.0.0.7"}}),
	)
	addrs, err := c.Resolve(context.Background(), "A4-13-4E-00-11-22")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6", "10.0.0.7"}, addrs)
	assert.Equal(t, "chain(static,failing,static)", c.Name())
}

func TestChain_NothingFound(t *testing.T) {
	c := NewChain(NewStatic(nil), failingResolver{})
	_, err := c.Resolve(context.Background(), camMAC)
	require.ErrorIs(t, err, ErrResolution)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	arp := filepath.Join(dir, "arp")
	require.NoError(t, os.WriteFile(arp, []byte(arpTable), 0o600))
	mr := miniredis.RunT(t)
	mr.HSet("k", camMAC, "192.168.1.99")

	c, err := New(context.Background(), config.ResolverConfig{
		Order:      []string{config.ResolverStatic, config.ResolverLeases, config.ResolverARP, config.ResolverRedis},
		ARPPath:    arp,
		LeasesPath: filepath.Join(dir, "leases"),
		Static:     map[string][]string{camMAC: {"192.168.1.40"}},
		Redis:      config.RedisConfig{Addr: mr.Addr(), Key: "k"},
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close()) }()

	addrs, err := c.Resolve(context.Background(), camMAC)
	require.NoError(t, err)
	assert.Equal(t, []string{"192.168.1.40", "192.168.1.42", "192.168.1.99"}, addrs)

	_, err = New(context.Background(), config.ResolverConfig{Order: []string{"mdns"}})
	require.Error(t, err)
}
