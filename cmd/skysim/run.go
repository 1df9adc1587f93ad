package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/polarsky/internal/config"
	"github.com/banshee-data/polarsky/internal/pipeline"
	"github.com/banshee-data/polarsky/internal/render"
	"github.com/banshee-data/polarsky/internal/security"
)

// overrides are command-line values that replace config fields when set.
type overrides struct {
	StartTime string
	Frames    int
	Interval  time.Duration
	Seed      int64
}

func applyOverrides(cfg *config.SimulationConfig, o overrides) {
	if o.StartTime != "" {
		cfg.StartTime = &o.StartTime
	}
	if o.Frames > 0 {
		cfg.Frames = &o.Frames
	}
	if o.Interval > 0 {
		s := o.Interval.String()
		cfg.Interval = &s
	}
	if o.Seed != 0 {
		cfg.Seed = &o.Seed
	}
}

// runDir names the artifact directory of one run under out.
func runDir(out, label string, start time.Time) string {
	if label == "" {
		label = start.UTC().Format(time.RFC3339)
	}
	return filepath.Join(out, security.SanitizeFilename(label))
}

// writeArtifacts renders every frame of c: heat maps of DoP, AoP, radiance
// and digital counts, the 16-bit raw frame and a sky chart.
func writeArtifacts(w *render.Writer, c *pipeline.Capture) ([]string, error) {
	var paths []string
	add := func(name string, fn func(*bytes.Buffer) error) error {
		p, err := w.Write(name, fn)
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	}
	adcBits := c.Params.Sensor.ADCBits
	for t := 0; t < c.Counts.Frames; t++ {
		steps := []struct {
			name string
			fn   func(*bytes.Buffer) error
		}{
			{fmt.Sprintf("dop_%03d.png", t), func(b *bytes.Buffer) error {
				return render.HeatmapPNG(b, c.Sky.DoP.Frame(t), fmt.Sprintf("Degree of polarization, frame %d", t))
			}},
			{fmt.Sprintf("aop_%03d.png", t), func(b *bytes.Buffer) error {
				return render.HeatmapPNG(b, render.AngleDegrees(c.Sky.AoP.Frame(t)), fmt.Sprintf("Angle of polarization (deg), frame %d", t))
			}},
			{fmt.Sprintf("radiance_%03d.png", t), func(b *bytes.Buffer) error {
				return render.HeatmapPNG(b, c.Sky.Radiance.Frame(t), fmt.Sprintf("Relative radiance, frame %d", t))
			}},
			{fmt.Sprintf("counts_%03d.png", t), func(b *bytes.Buffer) error {
				return render.HeatmapPNG(b, render.CountsPlane(c.Counts, t), fmt.Sprintf("Digital counts, frame %d", t))
			}},
			{fmt.Sprintf("raw_%03d.png", t), func(b *bytes.Buffer) error {
				return render.RawPNG(b, c.Counts, t, adcBits)
			}},
			{fmt.Sprintf("sky_%03d.html", t), func(b *bytes.Buffer) error {
				return render.SkyChartHTML(b, c.Sky, c.Grid, t)
			}},
		}
		for _, s := range steps {
			if err := add(s.name, s.fn); err != nil {
				return paths, err
			}
		}
	}
	return paths, nil
}

func printSummary(out io.Writer, s pipeline.Summary) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "frame\ttime\tsun az\tsun alt\tmean DoP\tstd DoP\tmean AoP\tvalid\tsaturated")
	for _, f := range s.Frames {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%.2f\t%.4f\t%.4f\t%.2f\t%d\t%d\n",
			f.Index, f.Time.Format(time.RFC3339), f.SunAzimuthDeg, f.SunAltitudeDeg,
			f.MeanDoP, f.StdDoP, f.MeanAoPDeg, f.ValidPixels, f.SaturatedPixels)
	}
	tw.Flush()
}
