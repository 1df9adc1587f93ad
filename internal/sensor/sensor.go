// Package sensor converts irradiance on the focal plane into digital
// counts the way an image sensor's readout chain does: shot-like noise,
// auto-exposure against the brightest pixel, quantization and clipping.
package sensor

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/polarsky/internal/raster"
)

// Config describes a sensor readout chain.
type Config struct {
	// SaturationRatio is the fraction of full well the brightest pixel of
	// a frame is exposed to.
	SaturationRatio float64
	ADCBits         int
	// SNR scales signal-dependent noise. +Inf disables noise.
	SNR float64
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if math.IsNaN(c.SaturationRatio) || c.SaturationRatio <= 0 || c.SaturationRatio > 1 {
		return fmt.Errorf("saturation ratio must be within (0, 1], got %g", c.SaturationRatio)
	}
	if c.ADCBits < 1 || c.ADCBits > 31 {
		return fmt.Errorf("ADC resolution must be within [1, 31] bits, got %d", c.ADCBits)
	}
	if math.IsNaN(c.SNR) || c.SNR <= 0 {
		return fmt.Errorf("SNR must be > 0, got %g", c.SNR)
	}
	return nil
}

// Digitizer quantizes intensity frames. It is safe for concurrent use.
type Digitizer struct {
	cfg      Config
	maxCount int32

	mu  sync.Mutex
	src rand.Source
}

// New creates a Digitizer. A nil src is replaced by a time-seeded generator.
func New(cfg Config, src rand.Source) (*Digitizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1|1)
	}
	return &Digitizer{
		cfg:      cfg,
		maxCount: int32(int64(1)<<cfg.ADCBits - 1),
		src:      src,
	}, nil
}

// Config returns the sensor configuration.
func (d *Digitizer) Config() Config { return d.cfg }

// MaxCount is the largest count the ADC can report.
func (d *Digitizer) MaxCount() int32 { return d.maxCount }

// noisy returns the input with NaN replaced by 0 and noise added.
func (d *Digitizer) noisy(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		if !raster.IsInvalid(v) {
			out[i] = float64(v)
		}
	}
	if math.IsInf(d.cfg.SNR, 1) {
		return out
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	n := distuv.Normal{Mu: 0, Sigma: 1, Src: d.src}
	for i, v := range out {
		out[i] = v + v/d.cfg.SNR*n.Rand()
	}
	return out
}

// Digitize converts intensity [T,H,W] into counts. Each frame is scaled so
// that its brightest valid pixel lands at SaturationRatio of full scale
// before noise; counts above MaxCount are clipped. Negative counts are
// kept. Invalid input pixels are invalid in the output.
func (d *Digitizer) Digitize(intensity *raster.Cube) *raster.Counts {
	out := raster.NewCounts(intensity.Frames, intensity.Rows, intensity.Cols)
	signal := d.noisy(intensity.Data)
	full := float64(d.maxCount)

	n := intensity.FrameSize()
	for t := 0; t < intensity.Frames; t++ {
		base := t * n
		frameMax, valid := math.Inf(-1), false
		for _, v := range intensity.Data[base : base+n] {
			if !raster.IsInvalid(v) {
				frameMax = math.Max(frameMax, float64(v))
				valid = true
			}
		}

		exposure := 0.0
		if valid && frameMax > 0 {
			exposure = frameMax * d.cfg.SaturationRatio
		}

		for i := base; i < base+n; i++ {
			if raster.IsInvalid(intensity.Data[i]) {
				out.Valid[i] = false
				out.Data[i] = 0
				continue
			}
			if exposure == 0 {
				out.Data[i] = 0
				continue
			}
			out.Data[i] = quantize(full*(signal[i]/exposure), full)
		}
	}
	return out
}

func quantize(v, full float64) int32 {
	v = math.Min(math.Floor(v), full)
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int32(v)
}
