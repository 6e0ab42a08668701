package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineFallbackEdgeOnce(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.to(Preparing))
	require.NoError(t, m.to(BackendFailed))
	assert.True(t, m.canFallBack())
	require.NoError(t, m.to(Preparing))
	assert.False(t, m.canFallBack())
	require.NoError(t, m.to(CapturingFrames))
	require.NoError(t, m.to(BackendFailed))
	assert.Error(t, m.to(Preparing))
	require.NoError(t, m.to(Failed))
	assert.True(t, m.state.Terminal())
}

func TestMachineRejectsIllegalTransitions(t *testing.T) {
	m := newMachine()
	assert.Error(t, m.to(CapturingFrames))
	require.NoError(t, m.to(Preparing))
	assert.Error(t, m.to(Succeeded))
	assert.Error(t, m.to(MuxingAudio))

	m.fail()
	assert.Equal(t, Failed, m.state)
	m.fail()
	assert.Equal(t, []State{Idle, Preparing, Failed}, m.history)
	assert.Error(t, m.to(Preparing))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "capturing", CapturingFrames.String())
	assert.Equal(t, "backend_failed", BackendFailed.String())
	assert.Equal(t, "state(42)", State(42).String())
}

func TestProgressTracker(t *testing.T) {
	var got []int
	p := &progressTracker{fn: func(pr Progress) { got = append(got, pr.Percent) }}
	p.report(10, "", 0, CapturingFrames)
	p.report(5, "", 0, CapturingFrames)
	p.report(140, "", 0, Finalizing)
	p.report(-3, "", 0, Finalizing)
	assert.Equal(t, []int{10, 10, 100, 100}, got)

	(&progressTracker{}).report(50, "", 0, Preparing)

	assert.Equal(t, 0, framePercent(0, 150))
	assert.Equal(t, 1, framePercent(1, 150))
	assert.Equal(t, 100, framePercent(150, 150))
	assert.Equal(t, 0, framePercent(3, 0))
	assert.Equal(t, "Slide 2/3, frame 7/90", frameStatus(2, 3, 7, 90))
}

func TestStatsReport(t *testing.T) {
	s := Stats{
		JobID:        "job-1",
		BuildVersion: "dev",
		Title:        "Launch",
		Backend:      "software",
		Frames:       300,
		Capture:      10 * time.Second,
		Finalize:     2 * time.Second,
		Total:        13 * time.Second,
	}
	assert.InDelta(t, 30, s.EffectiveFPS(), 1e-9)
	assert.Zero(t, Stats{Frames: 10}.EffectiveFPS())

	var buf bytes.Buffer
	require.NoError(t, s.WriteReport(&buf))
	assert.Contains(t, buf.String(), "--- [PERFORMANCE REPORT] ---")
	assert.Contains(t, buf.String(), "software")

	path := filepath.Join(t.TempDir(), "benchmark.log")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.AppendBenchmark(path, now))
	require.NoError(t, s.AppendBenchmark(path, now))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2026-03-01")
}
