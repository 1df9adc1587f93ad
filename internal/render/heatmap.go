package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/units"
)

// HeatmapSize is the canvas edge length of heat maps.
var HeatmapSize = 6 * vg.Inch

// HeatmapDPI is the raster resolution of heat maps.
var HeatmapDPI = 96

// planeGrid adapts a plane to plotter.GridXYZ. Row 0 of the image is drawn
// at the top.
type planeGrid struct {
	p *raster.Plane
}

func (g planeGrid) Dims() (c, r int) { return g.p.Cols, g.p.Rows }
func (g planeGrid) Z(c, r int) float64 {
	return float64(g.p.At(g.p.Rows-1-r, c))
}
func (g planeGrid) X(c int) float64 { return float64(c) }
func (g planeGrid) Y(r int) float64 { return float64(r) }

func finiteRange(p *raster.Plane) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p.Data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		lo = math.Min(lo, f)
		hi = math.Max(hi, f)
	}
	return lo, hi, lo <= hi
}

// HeatmapPNG draws plane as a colour heat map and writes it to w as PNG.
// Invalid pixels are transparent.
func HeatmapPNG(w io.Writer, plane *raster.Plane, title string) error {
	if plane == nil || plane.Rows == 0 || plane.Cols == 0 {
		return fmt.Errorf("heat map of an empty plane")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "column"
	p.Y.Label.Text = "row"

	hm := plotter.NewHeatMap(planeGrid{plane}, moreland.Kindlmann().Palette(255))
	hm.NaN = color.Transparent
	lo, hi, ok := finiteRange(plane)
	if !ok {
		lo, hi = 0, 1
	}
	if hi == lo {
		hi = lo + 1
	}
	hm.Min, hm.Max = lo, hi
	p.Add(hm)

	c := vgimg.NewWith(vgimg.UseWH(HeatmapSize, HeatmapSize), vgimg.UseDPI(HeatmapDPI))
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// AngleDegrees converts a plane of radians to degrees, keeping NaN.
func AngleDegrees(p *raster.Plane) *raster.Plane {
	out := p.Clone()
	for i, v := range out.Data {
		out.Data[i] = float32(units.RadToDeg(float64(v)))
	}
	return out
}

// CountsPlane converts frame t of counts to a float plane, with invalid
// pixels set to NaN.
func CountsPlane(c *raster.Counts, t int) *raster.Plane {
	out := raster.NewPlane(c.Rows, c.Cols)
	n := c.FrameSize()
	for i := 0; i < n; i++ {
		if c.Valid[t*n+i] {
			out.Data[i] = float32(c.Data[t*n+i])
		} else {
			out.Data[i] = raster.Invalid()
		}
	}
	return out
}
