// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

//go:build unix

package ffmpeg

import (
	"io"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func requireBin(t *testing.T, name string) string {
	t.Helper()
	p, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available", name)
	}
	return p
}

func TestProcessStdoutAndStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	sh := requireBin(t, "sh")

	p, err := Start(Spec{Bin: sh, Args: []string{"-c", "echo warming >&2; while true; do printf abcd; sleep 0.01; done"}, Role: "decoder", Stdout: true})
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = io.ReadFull(p.Stdout(), buf)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(buf))

	_ = p.Stop(time.Second)
	assert.True(t, p.Exited())
	assert.Equal(t, []string{"warming"}, p.StderrTail(5))

	// idempotent
	_ = p.Stop(time.Second)
}

func TestProcessCloseAndWait(t *testing.T) {
	defer goleak.VerifyNone(t)
	cat := requireBin(t, "cat")

	p, err := Start(Spec{Bin: cat, Role: "encoder", Stdin: true})
	require.NoError(t, err)

	_, err = p.Stdin().Write([]byte("frame"))
	require.NoError(t, err)

	require.NoError(t, p.CloseAndWait(time.Second))
	assert.True(t, p.Exited())
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(Spec{Bin: "/nonexistent/ffmpeg", Role: "decoder"})
	require.Error(t, err)
}
