package main

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/banshee-data/polarsky/internal/config"
	"github.com/banshee-data/polarsky/internal/fsutil"
	"github.com/banshee-data/polarsky/internal/pipeline"
	"github.com/banshee-data/polarsky/internal/render"
	"github.com/banshee-data/polarsky/internal/timeutil"
)

// parseDay returns midnight UTC of the named day, or of today when s is
// empty.
func parseDay(s string, clock timeutil.Clock) (time.Time, error) {
	if s == "" {
		now := clock.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Parse("2006-01-02", s)
}

// sweepParams builds one single-frame capture per step across the day.
func sweepParams(cfg *config.SimulationConfig, day time.Time, step time.Duration, clock timeutil.Clock) ([]pipeline.Params, error) {
	if step <= 0 {
		return nil, fmt.Errorf("step must be positive, got %v", step)
	}
	base, err := pipeline.FromConfig(cfg, clock)
	if err != nil {
		return nil, err
	}
	var out []pipeline.Params
	for t := day; t.Before(day.Add(24 * time.Hour)); t = t.Add(step) {
		p := base
		p.Times = []time.Time{t}
		out = append(out, p)
	}
	return out, nil
}

// row is one instant of the sweep.
type row struct {
	Time           time.Time
	SunAltitudeDeg float64
	SunAzimuthDeg  float64
	MeanDoP        float64
	StdDoP         float64
	Saturated      int
}

func collect(captures []*pipeline.Capture) []row {
	out := make([]row, 0, len(captures))
	for _, c := range captures {
		f := c.Summary.Frames[0]
		out = append(out, row{
			Time:           f.Time,
			SunAltitudeDeg: f.SunAltitudeDeg,
			SunAzimuthDeg:  f.SunAzimuthDeg,
			MeanDoP:        f.MeanDoP,
			StdDoP:         f.StdDoP,
			Saturated:      f.SaturatedPixels,
		})
	}
	return out
}

func printRows(w io.Writer, rows []row) {
	fmt.Fprintf(w, "%-6s %9s %9s %9s %9s %9s\n", "UTC", "sun alt", "sun az", "mean DoP", "std DoP", "saturated")
	for _, r := range rows {
		fmt.Fprintf(w, "%-6s %9.2f %9.2f %9.4f %9.4f %9d\n",
			r.Time.Format("15:04"), r.SunAltitudeDeg, r.SunAzimuthDeg, r.MeanDoP, r.StdDoP, r.Saturated)
	}
}

// writePlot draws mean DoP and the normalised solar altitude against hour
// of day. Night instants, where the sky model yields no light, leave gaps.
func writePlot(fs fsutil.FileSystem, name string, day time.Time, rows []row) error {
	hours := make([]float64, len(rows))
	dop := make([]float64, len(rows))
	alt := make([]float64, len(rows))
	for i, r := range rows {
		hours[i] = r.Time.Sub(day).Hours()
		dop[i] = r.MeanDoP
		alt[i] = math.Max(r.SunAltitudeDeg, 0) / 90
	}
	var buf bytes.Buffer
	err := render.LinePlotPNG(&buf,
		fmt.Sprintf("Sky polarization on %s", day.Format("2006-01-02")),
		"hour (UTC)", "",
		render.Series{Name: "mean DoP", X: hours, Y: dop},
		render.Series{Name: "sun altitude / 90°", X: hours, Y: alt},
	)
	if err != nil {
		return err
	}
	return fs.WriteFile(name, buf.Bytes(), 0o644)
}
