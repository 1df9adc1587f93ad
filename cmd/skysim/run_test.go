package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/polarsky/internal/config"
	"github.com/banshee-data/polarsky/internal/fsutil"
	"github.com/banshee-data/polarsky/internal/pipeline"
	"github.com/banshee-data/polarsky/internal/render"
	"github.com/banshee-data/polarsky/internal/timeutil"
)

func TestApplyOverrides(t *testing.T) {
	cfg := config.DefaultSimulationConfig()
	applyOverrides(cfg, overrides{})
	assert.Equal(t, "now", cfg.GetStartTime())
	assert.Equal(t, 1, cfg.GetFrames())
	_, seeded := cfg.GetSeed()
	assert.False(t, seeded)

	applyOverrides(cfg, overrides{StartTime: "2025-06-01T09:30:00Z", Frames: 3, Interval: 5 * time.Minute, Seed: 9})
	assert.Equal(t, "2025-06-01T09:30:00Z", cfg.GetStartTime())
	assert.Equal(t, 3, cfg.GetFrames())
	assert.Equal(t, 5*time.Minute, cfg.GetInterval())
	s, seeded := cfg.GetSeed()
	assert.True(t, seeded)
	assert.Equal(t, int64(9), s)
	require.NoError(t, cfg.Validate())
}

func smallCapture(t *testing.T) *pipeline.Capture {
	t.Helper()
	cfg := config.DefaultSimulationConfig()
	rows, cols := 12, 12
	focal := 4.0
	cfg.Rows, cfg.Cols, cfg.FocalLengthUM = &rows, &cols, &focal
	pitch := 1.0
	cfg.PixelPitchUM = &pitch
	applyOverrides(cfg, overrides{StartTime: "2025-06-01T09:30:00Z", Frames: 2, Interval: time.Hour, Seed: 5})

	p, err := pipeline.FromConfig(cfg, timeutil.RealClock{})
	require.NoError(t, err)
	c, err := pipeline.Run(p)
	require.NoError(t, err)
	return c
}

func TestWriteArtifacts(t *testing.T) {
	c := smallCapture(t)
	mem := fsutil.NewMemoryFileSystem()
	paths, err := writeArtifacts(&render.Writer{FS: mem, Dir: "out"}, c)
	require.NoError(t, err)
	assert.Len(t, paths, 12)

	names, err := mem.List("out")
	require.NoError(t, err)
	assert.Contains(t, names, "dop_000.png")
	assert.Contains(t, names, "raw_001.png")
	assert.Contains(t, names, "sky_001.html")
}

func TestPrintSummary(t *testing.T) {
	c := smallCapture(t)
	var buf bytes.Buffer
	printSummary(&buf, c.Summary)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "frame"))
	assert.Contains(t, lines[1], "2025-06-01T09:30:00Z")
}

func TestRunDir(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("out", "2025-06-01T09_30_00Z"), runDir("out", "", start))
	assert.Equal(t, filepath.Join("out", "greenwich_noon"), runDir("out", "greenwich noon", start))
	assert.Equal(t, filepath.Join("out", "etc_passwd"), runDir("out", "../etc/passwd", start))
}
