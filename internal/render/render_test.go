package render

import (
	"bytes"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/polarsky/internal/fsutil"
	"github.com/banshee-data/polarsky/internal/lens"
	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/sky"
	"github.com/banshee-data/polarsky/internal/testutil"
)

func rampPlane(rows, cols int) *raster.Plane {
	p := raster.NewPlane(rows, cols)
	for i := range p.Data {
		p.Data[i] = float32(i)
	}
	return p
}

func TestHeatmapPNG(t *testing.T) {
	tests := []struct {
		name  string
		plane *raster.Plane
	}{
		{"ramp", rampPlane(8, 8)},
		{"with invalid", func() *raster.Plane {
			p := rampPlane(4, 6)
			p.Set(1, 1, raster.Invalid())
			return p
		}()},
		{"uniform", func() *raster.Plane {
			p := raster.NewPlane(3, 3)
			p.Fill(0.5)
			return p
		}()},
		{"all invalid", func() *raster.Plane {
			p := raster.NewPlane(2, 2)
			p.Fill(raster.Invalid())
			return p
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, HeatmapPNG(&buf, tt.plane, tt.name))
			img := testutil.DecodePNG(t, buf.Bytes())
			assert.Positive(t, img.Bounds().Dx())
			assert.Positive(t, img.Bounds().Dy())
		})
	}
}

func TestHeatmapRejectsEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, HeatmapPNG(&buf, nil, "x"))
	assert.Error(t, HeatmapPNG(&buf, raster.NewPlane(0, 0), "x"))
}

func TestRawPNG(t *testing.T) {
	c := raster.NewCounts(2, 2, 2)
	copy(c.Data[4:], []int32{4095, 2048, -5, 1})
	c.Valid[7] = false

	var buf bytes.Buffer
	require.NoError(t, RawPNG(&buf, c, 1, 12))
	img := testutil.DecodePNG(t, buf.Bytes())
	g, ok := img.(*image.Gray16)
	require.True(t, ok, "expected a 16-bit grayscale image, got %T", img)
	assert.Equal(t, image.Rect(0, 0, 2, 2), g.Bounds())
	assert.Equal(t, uint16(4095<<4), g.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(2048<<4), g.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(0), g.Gray16At(0, 1).Y, "negative counts are black")
	assert.Equal(t, uint16(0), g.Gray16At(1, 1).Y, "invalid counts are black")
}

func TestRawPNGErrors(t *testing.T) {
	c := raster.NewCounts(1, 1, 1)
	var buf bytes.Buffer
	assert.Error(t, RawPNG(&buf, c, 1, 12))
	assert.Error(t, RawPNG(&buf, c, -1, 12))
	assert.Error(t, RawPNG(&buf, c, 0, 0))
	assert.Error(t, RawPNG(&buf, c, 0, 32))
}

func TestRawPNGDeepADC(t *testing.T) {
	c := raster.NewCounts(1, 1, 3)
	copy(c.Data, []int32{1<<20 - 1, 1 << 19, 15})

	var buf bytes.Buffer
	require.NoError(t, RawPNG(&buf, c, 0, 20))
	g, ok := testutil.DecodePNG(t, buf.Bytes()).(*image.Gray16)
	require.True(t, ok)
	assert.Equal(t, uint16(0xffff), g.Gray16At(0, 0).Y, "full scale fills 16 bits")
	assert.Equal(t, uint16(1<<15), g.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(0), g.Gray16At(2, 0).Y, "low 4 bits are dropped")
}

func TestCountsPlaneMasksInvalid(t *testing.T) {
	c := raster.NewCounts(2, 1, 2)
	c.Data[2], c.Data[3] = 7, 9
	c.Valid[3] = false
	p := CountsPlane(c, 1)
	assert.Equal(t, float32(7), p.At(0, 0))
	assert.True(t, raster.IsInvalid(p.At(0, 1)))
}

func TestAngleDegrees(t *testing.T) {
	p := raster.NewPlane(1, 2)
	p.Data[0] = float32(math.Pi / 2)
	p.Data[1] = raster.Invalid()
	d := AngleDegrees(p)
	assert.InDelta(t, 90, d.At(0, 0), 1e-4)
	assert.True(t, raster.IsInvalid(d.At(0, 1)))
	assert.InDelta(t, math.Pi/2, p.At(0, 0), 1e-6, "input untouched")
}

func chartFixture() (*sky.Result, *lens.AngularGrid) {
	az := raster.NewPlane(2, 2)
	alt := raster.NewPlane(2, 2)
	copy(az.Data, []float32{0, 90, 180, 270})
	copy(alt.Data, []float32{90, 45, 30, -10})
	dop := raster.NewCube(1, 2, 2)
	copy(dop.Data, []float32{0.1, 0.4, 0.7, raster.Invalid()})
	res := &sky.Result{
		DoP: dop,
		Sun: []sky.Direction{{Azimuth: math.Pi, Altitude: math.Pi / 6}},
	}
	return res, &lens.AngularGrid{Azimuth: az, Altitude: alt}
}

func TestSkyChartHTML(t *testing.T) {
	res, grid := chartFixture()
	var buf bytes.Buffer
	require.NoError(t, SkyChartHTML(&buf, res, grid, 0))
	html := buf.String()
	assert.True(t, strings.Contains(html, "echarts"))
	assert.True(t, strings.Contains(html, "points=3"), "invalid pixels are skipped")
	assert.True(t, strings.Contains(html, "az=180.0"))

	assert.Error(t, SkyChartHTML(&buf, res, grid, 1))
}

func TestWriterStoresArtifacts(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	w := &Writer{FS: mem, Dir: "out/run1"}

	path, err := w.Write("dop.png", func(b *bytes.Buffer) error {
		return HeatmapPNG(b, rampPlane(4, 4), "dop")
	})
	require.NoError(t, err)
	assert.Equal(t, "out/run1/dop.png", path)

	data, err := mem.ReadFile(path)
	require.NoError(t, err)
	testutil.DecodePNG(t, data)

	_, err = w.Write("bad.png", func(*bytes.Buffer) error {
		return RawPNG(&bytes.Buffer{}, raster.NewCounts(1, 1, 1), 3, 12)
	})
	assert.Error(t, err)
	assert.False(t, mem.Exists("out/run1/bad.png"))

	names, err := mem.List("out/run1")
	require.NoError(t, err)
	assert.Equal(t, []string{"dop.png"}, names)
}

func TestLinePlotPNG(t *testing.T) {
	x := []float64{0, 1, 2, 3}
	var buf bytes.Buffer
	err := LinePlotPNG(&buf, "sweep", "hour", "value",
		Series{Name: "dop", X: x, Y: []float64{0.1, 0.2, math.NaN(), 0.4}},
		Series{Name: "night", X: x, Y: []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}},
	)
	require.NoError(t, err)
	testutil.DecodePNG(t, buf.Bytes())

	assert.Error(t, LinePlotPNG(&buf, "t", "x", "y"))
	assert.Error(t, LinePlotPNG(&buf, "t", "x", "y", Series{Name: "bad", X: x, Y: x[:2]}))
}

func TestWriterRejectsUnsafeNames(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	w := &Writer{FS: mem, Dir: "out"}
	for _, name := range []string{"", "../up.png", "sub/x.png"} {
		_, err := w.Write(name, func(b *bytes.Buffer) error { return nil })
		assert.Error(t, err, name)
	}
}

func TestWriterOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	w := NewWriter(dir)
	path, err := w.Write("raw.png", func(b *bytes.Buffer) error {
		return RawPNG(b, raster.NewCounts(1, 2, 2), 0, 8)
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	testutil.DecodePNG(t, data)
}
