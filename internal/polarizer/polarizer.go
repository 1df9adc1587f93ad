// Package polarizer models a pixelated wire-grid micro-polarizer array
// bonded over an image sensor.
package polarizer

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/units"
)

// SlicingPattern selects the pixels at rows StartRow, StartRow+Step, ...
// and columns StartColumn, StartColumn+Step, ...
type SlicingPattern struct {
	StartRow    int `json:"start_row" yaml:"start_row"`
	StartColumn int `json:"start_column" yaml:"start_column"`
	Step        int `json:"step" yaml:"step"`
}

// Validate checks the pattern bounds.
func (p SlicingPattern) Validate() error {
	if p.StartRow < 0 {
		return fmt.Errorf("start_row must be >= 0, got %d", p.StartRow)
	}
	if p.StartColumn < 0 {
		return fmt.Errorf("start_column must be >= 0, got %d", p.StartColumn)
	}
	if p.Step < 1 {
		return fmt.Errorf("step must be >= 1, got %d", p.Step)
	}
	return nil
}

// Orientation assigns a wire-grid angle to the pixels of a pattern.
type Orientation struct {
	AngleDeg float64        `json:"angle_deg" yaml:"angle_deg"`
	Pattern  SlicingPattern `json:"pattern" yaml:"pattern"`
}

// DefaultMosaic is the common 2x2 superpixel layout:
//
//	90  45
//	135  0
func DefaultMosaic() []Orientation {
	return []Orientation{
		{AngleDeg: 90, Pattern: SlicingPattern{StartRow: 0, StartColumn: 0, Step: 2}},
		{AngleDeg: 45, Pattern: SlicingPattern{StartRow: 0, StartColumn: 1, Step: 2}},
		{AngleDeg: 135, Pattern: SlicingPattern{StartRow: 1, StartColumn: 0, Step: 2}},
		{AngleDeg: 0, Pattern: SlicingPattern{StartRow: 1, StartColumn: 1, Step: 2}},
	}
}

// Config describes a micro-polarizer array.
type Config struct {
	// ExtinctionRatio is 1 for an ideal polarizer.
	ExtinctionRatio float64
	// ToleranceRad bounds the per-pixel orientation defect, in radians.
	ToleranceRad float64
	// Mosaic is applied in order; later entries overwrite earlier ones.
	Mosaic []Orientation
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if math.IsNaN(c.ExtinctionRatio) || c.ExtinctionRatio < 0 || c.ExtinctionRatio > 1 {
		return fmt.Errorf("extinction ratio must be within [0, 1], got %g", c.ExtinctionRatio)
	}
	if math.IsNaN(c.ToleranceRad) || c.ToleranceRad < 0 {
		return fmt.Errorf("tolerance must be >= 0, got %g", c.ToleranceRad)
	}
	if len(c.Mosaic) == 0 {
		return fmt.Errorf("mosaic must have at least one orientation")
	}
	for i, o := range c.Mosaic {
		if err := o.Pattern.Validate(); err != nil {
			return fmt.Errorf("mosaic entry %d (%g deg): %w", i, o.AngleDeg, err)
		}
	}
	return nil
}

// Array applies the polarizer to simulated sky fields. It is safe for
// concurrent use.
type Array struct {
	cfg Config

	mu  sync.Mutex
	src rand.Source
}

// New creates an Array. A nil src is replaced by a time-seeded generator.
func New(cfg Config, src rand.Source) (*Array, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	cfg.Mosaic = append([]Orientation(nil), cfg.Mosaic...)
	return &Array{cfg: cfg, src: src}, nil
}

// Config returns the array configuration.
func (a *Array) Config() Config { return a.cfg }

// OrientationMap returns the defect-free wire-grid angle of every pixel in
// radians. Pixels not covered by the mosaic are 0.
func (a *Array) OrientationMap(rows, cols int) *raster.Plane {
	m := raster.NewPlane(rows, cols)
	for _, o := range a.cfg.Mosaic {
		theta := float32(units.DegToRad(o.AngleDeg))
		p := o.Pattern
		for r := p.StartRow; r < rows; r += p.Step {
			for c := p.StartColumn; c < cols; c += p.Step {
				m.Set(r, c, theta)
			}
		}
	}
	return m
}

// Overlaps returns the number of pixels claimed by more than one mosaic
// entry on a rows x cols sensor.
func Overlaps(mosaic []Orientation, rows, cols int) int {
	claims := make([]int, rows*cols)
	for _, o := range mosaic {
		p := o.Pattern
		if p.Step < 1 {
			continue
		}
		for r := p.StartRow; r < rows; r += p.Step {
			for c := p.StartColumn; c < cols; c += p.Step {
				claims[r*cols+c]++
			}
		}
	}
	n := 0
	for _, k := range claims {
		if k > 1 {
			n++
		}
	}
	return n
}

// defects draws one orientation error per pixel.
func (a *Array) defects(size int) []float64 {
	out := make([]float64, size)
	if a.cfg.ToleranceRad == 0 {
		return out
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	u := distuv.Uniform{Min: -a.cfg.ToleranceRad, Max: a.cfg.ToleranceRad, Src: a.src}
	for i := range out {
		out[i] = u.Rand()
	}
	return out
}

// Transmit returns the intensity reaching each pixel behind the polarizer,
//
//	I = ½·L·(1 + ε·DoP·cos(2(AoP − θ)))
//
// where θ is the pixel's wire-grid angle plus a defect drawn once per call
// and shared by every frame. Angles are radians. All inputs must have the
// same shape.
func (a *Array) Transmit(dop, aop, radiance *raster.Cube) *raster.Cube {
	raster.MustMatch(radiance, dop, aop)

	theta := a.OrientationMap(radiance.Rows, radiance.Cols)
	defects := a.defects(len(theta.Data))
	eps := a.cfg.ExtinctionRatio

	out := raster.NewCube(radiance.Frames, radiance.Rows, radiance.Cols)
	n := radiance.FrameSize()
	for t := 0; t < radiance.Frames; t++ {
		base := t * n
		for k := 0; k < n; k++ {
			i := base + k
			angle := float64(theta.Data[k]) + defects[k]
			L := float64(radiance.Data[i])
			p := float64(dop.Data[i])
			psi := float64(aop.Data[i])
			out.Data[i] = float32(0.5 * L * (1 + eps*p*math.Cos(2*(psi-angle))))
		}
	}
	return out
}
