package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/polarsky/internal/lens"
	"github.com/banshee-data/polarsky/internal/polarizer"
	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/sensor"
	"github.com/banshee-data/polarsky/internal/sky"
)

// Capture is the output of one run.
type Capture struct {
	Params    Params
	Grid      *lens.AngularGrid
	Sky       *sky.Result
	Intensity *raster.Cube
	Counts    *raster.Counts
	MaxCount  int32
	Summary   Summary
	Elapsed   time.Duration
}

// Stream indices for the per-stage generators.
const (
	polarizerStream = 1
	sensorStream    = 2
)

// Run executes the four stages for p.
func Run(p Params) (*Capture, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	proj, err := lens.NewProjector(p.Lens)
	if err != nil {
		return nil, err
	}
	grid, err := proj.Project(lens.ProjectOptions{AltitudeFloorDeg: p.AltitudeFloorDeg, Custom: p.Custom})
	if err != nil {
		return nil, fmt.Errorf("project: %w", err)
	}
	diagf("projected %dx%d %s grid, field of view %.1f°", p.Lens.Rows, p.Lens.Cols, p.Lens.Model, proj.FieldOfViewDeg())

	var opts []sky.Option
	if p.Ephemeris != nil {
		opts = append(opts, sky.WithEphemeris(p.Ephemeris))
	}
	if p.Radiance != nil {
		opts = append(opts, sky.WithRadiance(p.Radiance))
	}
	model, err := sky.NewPolarizationModel(sky.ObservationFrame{Times: p.Times, Site: p.Site}, grid, opts...)
	if err != nil {
		return nil, err
	}
	res, err := model.Simulate(sky.SimulateOptions{
		SkyType:          p.SkyType,
		AltitudeFloorDeg: p.AltitudeFloorDeg,
		HighAccuracy:     p.HighAccuracy,
	})
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	for t, s := range res.Sun {
		if s.Altitude < 0 {
			opsf("frame %d (%s): sun is below the horizon", t, p.Times[t].Format(time.RFC3339))
		}
	}

	if n := polarizer.Overlaps(p.Polarizer.Mosaic, p.Lens.Rows, p.Lens.Cols); n > 0 {
		opsf("polarizer mosaic claims %d pixels more than once; later entries win", n)
	}
	pol, err := polarizer.New(p.Polarizer, rand.NewPCG(p.Seed, polarizerStream))
	if err != nil {
		return nil, err
	}
	intensity := pol.Transmit(res.DoP, res.AoP, res.Radiance)

	dig, err := sensor.New(p.Sensor, rand.NewPCG(p.Seed, sensorStream))
	if err != nil {
		return nil, err
	}
	counts := dig.Digitize(intensity)

	c := &Capture{
		Params:    p,
		Grid:      grid,
		Sky:       res,
		Intensity: intensity,
		Counts:    counts,
		MaxCount:  dig.MaxCount(),
		Summary:   Summarize(p.Times, res, counts, dig.MaxCount()),
		Elapsed:   time.Since(start),
	}
	for _, f := range c.Summary.Frames {
		tracef("frame %d sun az=%.2f° alt=%.2f° dop=%.3f±%.3f valid=%d saturated=%d",
			f.Index, f.SunAzimuthDeg, f.SunAltitudeDeg, f.MeanDoP, f.StdDoP, f.ValidPixels, f.SaturatedPixels)
	}
	diagf("capture of %d frames done in %v", len(p.Times), c.Elapsed)
	return c, nil
}

// RunBatch runs independent captures concurrently, at most limit at a time
// (limit <= 0 means unbounded). Results are in input order. The first
// failure cancels captures that have not started yet.
func RunBatch(ctx context.Context, params []Params, limit int) ([]*Capture, error) {
	out := make([]*Capture, len(params))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range params {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := Run(params[i])
			if err != nil {
				opsf("capture %d failed: %v", i, err)
				return fmt.Errorf("capture %d: %w", i, err)
			}
			out[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
