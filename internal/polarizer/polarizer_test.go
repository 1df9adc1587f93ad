package polarizer

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/polarsky/internal/raster"
)

func filled(frames, rows, cols int, v float32) *raster.Cube {
	c := raster.NewCube(frames, rows, cols)
	c.Fill(v)
	return c
}

func uniformMosaic(angle float64) []Orientation {
	return []Orientation{{AngleDeg: angle, Pattern: SlicingPattern{Step: 1}}}
}

func TestTransmit_IdealPolarizerAligned(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, ToleranceRad: 0, Mosaic: uniformMosaic(0)}, rand.NewPCG(1, 2))
	require.NoError(t, err)

	out := a.Transmit(filled(2, 3, 4, 1), filled(2, 3, 4, 0), filled(2, 3, 4, 2))
	for i, v := range out.Data {
		assert.InDelta(t, 2.0, v, 1e-6, "pixel %d", i)
	}
}

func TestTransmit_Crossed(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, Mosaic: uniformMosaic(90)}, rand.NewPCG(1, 2))
	require.NoError(t, err)

	out := a.Transmit(filled(1, 2, 2, 1), filled(1, 2, 2, 0), filled(1, 2, 2, 2))
	for _, v := range out.Data {
		assert.InDelta(t, 0.0, v, 1e-6)
	}
}

func TestTransmit_ExtinctionRatio(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 0.5, Mosaic: uniformMosaic(0)}, nil)
	require.NoError(t, err)

	out := a.Transmit(filled(1, 1, 1, 1), filled(1, 1, 1, 0), filled(1, 1, 1, 4))
	assert.InDelta(t, 0.5*4*1.5, out.Data[0], 1e-6)

	// Unpolarized light passes half regardless of orientation.
	out = a.Transmit(filled(1, 1, 1, 0), filled(1, 1, 1, 1.2), filled(1, 1, 1, 4))
	assert.InDelta(t, 2.0, out.Data[0], 1e-6)
}

func TestTransmit_DefaultMosaicMalus(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, Mosaic: DefaultMosaic()}, nil)
	require.NoError(t, err)

	// Light polarized at 0 rad through the 2x2 superpixel.
	out := a.Transmit(filled(1, 2, 2, 1), filled(1, 2, 2, 0), filled(1, 2, 2, 1))
	assert.InDelta(t, 0.0, out.At(0, 0, 0), 1e-6) // 90
	assert.InDelta(t, 0.5, out.At(0, 0, 1), 1e-6) // 45
	assert.InDelta(t, 0.5, out.At(0, 1, 0), 1e-6) // 135
	assert.InDelta(t, 1.0, out.At(0, 1, 1), 1e-6) // 0
}

func TestTransmit_NaNPropagates(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, ToleranceRad: 0.01, Mosaic: DefaultMosaic()}, rand.NewPCG(3, 4))
	require.NoError(t, err)

	dop := filled(1, 2, 2, 0.5)
	aop := filled(1, 2, 2, 0.1)
	rad := filled(1, 2, 2, 1)
	rad.Data[0] = raster.Invalid()
	dop.Data[1] = raster.Invalid()
	aop.Data[2] = raster.Invalid()

	out := a.Transmit(dop, aop, rad)
	assert.True(t, raster.IsInvalid(out.Data[0]))
	assert.True(t, raster.IsInvalid(out.Data[1]))
	assert.True(t, raster.IsInvalid(out.Data[2]))
	assert.False(t, raster.IsInvalid(out.Data[3]))
}

func TestTransmit_DefectsSharedAcrossFrames(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, ToleranceRad: 0.2, Mosaic: uniformMosaic(0)}, rand.NewPCG(7, 8))
	require.NoError(t, err)

	out := a.Transmit(filled(3, 4, 4, 1), filled(3, 4, 4, 0.3), filled(3, 4, 4, 1))
	n := out.FrameSize()
	varied := false
	for k := 0; k < n; k++ {
		assert.Equal(t, out.Data[k], out.Data[n+k])
		assert.Equal(t, out.Data[k], out.Data[2*n+k])
		if out.Data[k] != out.Data[0] {
			varied = true
		}
	}
	assert.True(t, varied, "defects should differ between pixels")

	// Bounded by the tolerance: cos(2·(0.3 − θ)) with |θ| ≤ 0.2.
	for _, v := range out.Data[:n] {
		assert.GreaterOrEqual(t, float64(v), 0.5*(1+math.Cos(2*0.5))-1e-6)
		assert.LessOrEqual(t, float64(v), 1.0+1e-6)
	}
}

func TestTransmit_Reproducible(t *testing.T) {
	cfg := Config{ExtinctionRatio: 0.9, ToleranceRad: 0.05, Mosaic: DefaultMosaic()}
	a, _ := New(cfg, rand.NewPCG(42, 1))
	b, _ := New(cfg, rand.NewPCG(42, 1))

	in := func() (*raster.Cube, *raster.Cube, *raster.Cube) {
		return filled(1, 4, 4, 0.7), filled(1, 4, 4, 0.4), filled(1, 4, 4, 3)
	}
	d1, p1, r1 := in()
	d2, p2, r2 := in()
	assert.Equal(t, a.Transmit(d1, p1, r1).Data, b.Transmit(d2, p2, r2).Data)
}

func TestTransmit_ConcurrentUse(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, ToleranceRad: 0.1, Mosaic: DefaultMosaic()}, rand.NewPCG(5, 6))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := a.Transmit(filled(2, 8, 8, 0.5), filled(2, 8, 8, 0.2), filled(2, 8, 8, 1))
			assert.Equal(t, 0, countInvalid(out))
		}()
	}
	wg.Wait()
}

func countInvalid(c *raster.Cube) int {
	return len(c.Data) - c.ValidCount()
}

func TestTransmit_ShapeMismatchPanics(t *testing.T) {
	a, err := New(Config{ExtinctionRatio: 1, Mosaic: DefaultMosaic()}, nil)
	require.NoError(t, err)
	assert.Panics(t, func() {
		a.Transmit(filled(1, 2, 2, 0), filled(1, 2, 3, 0), filled(1, 2, 2, 0))
	})
}

func TestOrientationMap_LaterEntriesWin(t *testing.T) {
	mosaic := []Orientation{
		{AngleDeg: 0, Pattern: SlicingPattern{Step: 1}},
		{AngleDeg: 90, Pattern: SlicingPattern{StartRow: 1, StartColumn: 1, Step: 2}},
	}
	a, err := New(Config{ExtinctionRatio: 1, Mosaic: mosaic}, nil)
	require.NoError(t, err)

	m := a.OrientationMap(4, 4)
	assert.Equal(t, float32(0), m.At(0, 0))
	assert.InDelta(t, math.Pi/2, m.At(1, 1), 1e-6)
	assert.InDelta(t, math.Pi/2, m.At(3, 3), 1e-6)
	assert.Equal(t, float32(0), m.At(1, 2))

	assert.Equal(t, 4, Overlaps(mosaic, 4, 4))
	assert.Equal(t, 0, Overlaps(DefaultMosaic(), 6, 6))
	assert.Equal(t, 0, Overlaps(DefaultMosaic(), 5, 3))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{ExtinctionRatio: 0.99, ToleranceRad: 0.01, Mosaic: DefaultMosaic()}, false},
		{"ratio above one", Config{ExtinctionRatio: 1.1, Mosaic: DefaultMosaic()}, true},
		{"ratio negative", Config{ExtinctionRatio: -0.1, Mosaic: DefaultMosaic()}, true},
		{"negative tolerance", Config{ExtinctionRatio: 1, ToleranceRad: -1, Mosaic: DefaultMosaic()}, true},
		{"empty mosaic", Config{ExtinctionRatio: 1}, true},
		{"zero step", Config{ExtinctionRatio: 1, Mosaic: []Orientation{{Pattern: SlicingPattern{}}}}, true},
		{"negative row", Config{ExtinctionRatio: 1, Mosaic: []Orientation{{Pattern: SlicingPattern{StartRow: -1, Step: 1}}}}, true},
		{"negative column", Config{ExtinctionRatio: 1, Mosaic: []Orientation{{Pattern: SlicingPattern{StartColumn: -1, Step: 1}}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
