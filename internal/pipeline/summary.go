package pipeline

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/polarsky/internal/raster"
	"github.com/banshee-data/polarsky/internal/sky"
	"github.com/banshee-data/polarsky/internal/units"
)

// FrameSummary holds per-frame statistics of a capture.
type FrameSummary struct {
	Index          int
	Time           time.Time
	SunAzimuthDeg  float64
	SunAltitudeDeg float64

	MeanDoP float64
	StdDoP  float64
	// MeanAoPDeg is the axial mean of the angle of polarization, in
	// (-90, 90].
	MeanAoPDeg float64

	ValidPixels     int
	SaturatedPixels int
	MeanCount       float64
}

// Summary holds statistics for every frame.
type Summary struct {
	Frames []FrameSummary
}

// Summarize computes per-frame statistics. Invalid pixels are skipped;
// frames without valid pixels report NaN means.
func Summarize(times []time.Time, res *sky.Result, counts *raster.Counts, maxCount int32) Summary {
	out := Summary{Frames: make([]FrameSummary, counts.Frames)}
	n := counts.FrameSize()

	dop := make([]float64, 0, n)
	aop := make([]float64, 0, n)
	cnt := make([]float64, 0, n)
	for t := 0; t < counts.Frames; t++ {
		dop, aop, cnt = dop[:0], aop[:0], cnt[:0]
		base := t * n
		for i := base; i < base+n; i++ {
			if v := res.DoP.Data[i]; !raster.IsInvalid(v) {
				dop = append(dop, float64(v))
			}
			if v := res.AoP.Data[i]; !raster.IsInvalid(v) {
				// AoP is axial; double it onto the full circle.
				aop = append(aop, 2*float64(v))
			}
			if counts.Valid[i] {
				cnt = append(cnt, float64(counts.Data[i]))
			}
		}

		fs := FrameSummary{
			Index:           t,
			SunAzimuthDeg:   units.RadToDeg(res.Sun[t].Azimuth),
			SunAltitudeDeg:  units.RadToDeg(res.Sun[t].Altitude),
			MeanDoP:         math.NaN(),
			StdDoP:          math.NaN(),
			MeanAoPDeg:      math.NaN(),
			MeanCount:       math.NaN(),
			ValidPixels:     counts.ValidInFrame(t),
			SaturatedPixels: counts.Saturated(t, maxCount),
		}
		if t < len(times) {
			fs.Time = times[t]
		}
		if len(dop) > 1 {
			fs.MeanDoP, fs.StdDoP = stat.MeanStdDev(dop, nil)
		} else if len(dop) == 1 {
			fs.MeanDoP, fs.StdDoP = dop[0], 0
		}
		if len(aop) > 0 {
			fs.MeanAoPDeg = units.RadToDeg(stat.CircularMean(aop, nil) / 2)
		}
		if len(cnt) > 0 {
			fs.MeanCount = stat.Mean(cnt, nil)
		}
		out.Frames[t] = fs
	}
	return out
}
