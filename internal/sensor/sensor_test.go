package sensor

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/polarsky/internal/raster"
)

func TestDigitize_NoiselessPeakMapsToFullScale(t *testing.T) {
	d, err := New(Config{SaturationRatio: 1, ADCBits: 8, SNR: math.Inf(1)}, nil)
	require.NoError(t, err)

	in := raster.NewCube(1, 3, 3)
	in.Set(0, 1, 2, 0.37)

	out := d.Digitize(in)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v, ok := out.At(0, r, c)
			require.True(t, ok)
			if r == 1 && c == 2 {
				assert.Equal(t, int32(255), v)
			} else {
				assert.Equal(t, int32(0), v)
			}
		}
	}
}

func TestDigitize_PerFrameExposure(t *testing.T) {
	d, err := New(Config{SaturationRatio: 1, ADCBits: 10, SNR: math.Inf(1)}, nil)
	require.NoError(t, err)

	in := raster.NewCube(2, 1, 2)
	copy(in.Data, []float32{1, 0.5, 100, 25})

	out := d.Digitize(in)
	assert.Equal(t, []int32{1023, 511, 1023, 255}, out.Data)
}

func TestDigitize_SaturationRatio(t *testing.T) {
	d, err := New(Config{SaturationRatio: 0.5, ADCBits: 8, SNR: math.Inf(1)}, nil)
	require.NoError(t, err)

	in := raster.NewCube(1, 1, 3)
	copy(in.Data, []float32{1, 0.4, 0.5})
	out := d.Digitize(in)
	// Scale is 255/(1·0.5) = 510; the peak clips.
	assert.Equal(t, []int32{255, 204, 255}, out.Data)
	assert.Equal(t, 2, out.Saturated(0, d.MaxCount()))
}

func TestDigitize_MaskRestored(t *testing.T) {
	d, err := New(Config{SaturationRatio: 0.9, ADCBits: 12, SNR: 30}, rand.NewPCG(1, 1))
	require.NoError(t, err)

	in := raster.NewCube(2, 2, 2)
	in.Fill(0.5)
	in.Set(0, 0, 1, raster.Invalid())
	in.Set(1, 1, 0, raster.Invalid())

	out := d.Digitize(in)
	_, ok := out.At(0, 0, 1)
	assert.False(t, ok)
	_, ok = out.At(1, 1, 0)
	assert.False(t, ok)
	assert.Equal(t, 3, out.ValidInFrame(0))
	assert.Equal(t, 3, out.ValidInFrame(1))
}

func TestDigitize_SaturationInvariant(t *testing.T) {
	for _, bits := range []int{1, 4, 8, 12, 16, 31} {
		d, err := New(Config{SaturationRatio: 0.3, ADCBits: bits, SNR: 2}, rand.NewPCG(uint64(bits), 9))
		require.NoError(t, err)

		in := raster.NewCube(3, 8, 8)
		src := rand.New(rand.NewPCG(11, 12))
		for i := range in.Data {
			in.Data[i] = float32(src.Float64() * 10)
		}

		out := d.Digitize(in)
		for i, v := range out.Data {
			if out.Valid[i] {
				assert.LessOrEqual(t, v, d.MaxCount(), "bits=%d pixel=%d", bits, i)
			}
		}
	}
}

func TestDigitize_EmptyAndDarkFrames(t *testing.T) {
	d, err := New(Config{SaturationRatio: 1, ADCBits: 8, SNR: 10}, rand.NewPCG(2, 2))
	require.NoError(t, err)

	in := raster.NewCube(2, 1, 2)
	in.Data[0] = raster.Invalid()
	in.Data[1] = raster.Invalid()
	// Frame 1 is valid but dark.

	out := d.Digitize(in)
	assert.Equal(t, 0, out.ValidInFrame(0))
	assert.Equal(t, []int32{0, 0, 0, 0}, out.Data)
	assert.Equal(t, 2, out.ValidInFrame(1))
}

func TestDigitize_NoiseCanGoNegative(t *testing.T) {
	d, err := New(Config{SaturationRatio: 1, ADCBits: 8, SNR: 0.05}, rand.NewPCG(3, 3))
	require.NoError(t, err)

	in := raster.NewCube(1, 16, 16)
	in.Fill(1)
	out := d.Digitize(in)

	negative := 0
	for _, v := range out.Data {
		if v < 0 {
			negative++
		}
	}
	assert.Greater(t, negative, 0, "heavy noise should drive some counts below zero")
}

func TestDigitize_Reproducible(t *testing.T) {
	cfg := Config{SaturationRatio: 0.8, ADCBits: 10, SNR: 20}
	a, _ := New(cfg, rand.NewPCG(99, 2))
	b, _ := New(cfg, rand.NewPCG(99, 2))

	in := raster.NewCube(1, 4, 4)
	in.Fill(0.3)
	in.Data[5] = 0.9
	assert.Equal(t, a.Digitize(in).Data, b.Digitize(in).Data)
}

func TestConfig_Validate(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"ok", Config{SaturationRatio: 0.9, ADCBits: 12, SNR: 50}, false},
		{"noiseless", Config{SaturationRatio: 1, ADCBits: 8, SNR: inf}, false},
		{"zero saturation", Config{SaturationRatio: 0, ADCBits: 8, SNR: inf}, true},
		{"saturation above one", Config{SaturationRatio: 1.5, ADCBits: 8, SNR: inf}, true},
		{"zero bits", Config{SaturationRatio: 1, ADCBits: 0, SNR: inf}, true},
		{"too many bits", Config{SaturationRatio: 1, ADCBits: 32, SNR: inf}, true},
		{"zero snr", Config{SaturationRatio: 1, ADCBits: 8, SNR: 0}, true},
		{"nan snr", Config{SaturationRatio: 1, ADCBits: 8, SNR: math.NaN()}, true},
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

func TestMaxCount(t *testing.T) {
	for bits, want := range map[int]int32{1: 1, 8: 255, 12: 4095, 31: math.MaxInt32} {
		d, err := New(Config{SaturationRatio: 1, ADCBits: bits, SNR: 1}, nil)
		require.NoError(t, err)
		assert.Equal(t, want, d.MaxCount(), "bits=%d", bits)
	}
}
