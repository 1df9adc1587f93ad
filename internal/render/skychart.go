package render

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/polarsky/internal/lens"
	"github.com/banshee-data/polarsky/internal/sky"
	"github.com/banshee-data/polarsky/internal/units"
)

// MaxChartPoints caps the number of scatter points in a sky chart; larger
// grids are decimated with a uniform stride.
var MaxChartPoints = 20000

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// SkyChartHTML writes an HTML scatter chart of the degree of polarization
// of frame t. Points are placed at their zenith distance along their
// azimuth, North up and East right.
func SkyChartHTML(w io.Writer, res *sky.Result, grid *lens.AngularGrid, t int) error {
	if t < 0 || t >= res.Frames() {
		return fmt.Errorf("frame %d out of range [0,%d)", t, res.Frames())
	}
	dop := res.DoP.Frame(t)
	n := dop.Rows * dop.Cols
	stride := 1
	for n/(stride*stride) > MaxChartPoints {
		stride++
	}

	data := make([]opts.ScatterData, 0, n/(stride*stride)+1)
	for r := 0; r < dop.Rows; r += stride {
		for c := 0; c < dop.Cols; c += stride {
			v := float64(dop.At(r, c))
			if math.IsNaN(v) {
				continue
			}
			zd := 90 - float64(grid.Altitude.At(r, c))
			az := units.DegToRad(float64(grid.Azimuth.At(r, c)))
			x := zd * math.Sin(az)
			y := zd * math.Cos(az)
			data = append(data, opts.ScatterData{Value: []interface{}{x, y, v}})
		}
	}

	sun := res.Sun[t]
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Sky polarization", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Degree of polarization",
			Subtitle: fmt.Sprintf("frame=%d sun az=%.1f° alt=%.1f° points=%d", t, units.RadToDeg(sun.Azimuth), units.RadToDeg(sun.Altitude), len(data)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -90, Max: 90, Name: "East (deg)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -90, Max: 90, Name: "North (deg)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        1,
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("dop", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	return scatter.Render(w)
}
