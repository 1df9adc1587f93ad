package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/polarsky/internal/capturedb"
	"github.com/banshee-data/polarsky/internal/polarizer"
)

// paramsRecord is the JSON form of Params kept alongside a stored capture.
type paramsRecord struct {
	LensModel        string                  `json:"lens_model"`
	AltitudeFloorDeg *float64                `json:"altitude_floor_deg,omitempty"`
	HighAccuracy     bool                    `json:"high_accuracy"`
	Start            time.Time               `json:"start"`
	Interval         string                  `json:"interval,omitempty"`
	ExtinctionRatio  float64                 `json:"extinction_ratio"`
	ToleranceRad     float64                 `json:"tolerance_rad"`
	Mosaic           []polarizer.Orientation `json:"mosaic"`
	SaturationRatio  float64                 `json:"saturation_ratio"`
	SNR              float64                 `json:"snr,omitempty"`
	NoiseFree        bool                    `json:"noise_free,omitempty"`
	ElapsedMS        int64                   `json:"elapsed_ms"`
}

func newParamsRecord(c *Capture) paramsRecord {
	p := c.Params
	rec := paramsRecord{
		LensModel:        p.Lens.Model.String(),
		AltitudeFloorDeg: p.AltitudeFloorDeg,
		HighAccuracy:     p.HighAccuracy,
		Start:            p.Times[0],
		ExtinctionRatio:  p.Polarizer.ExtinctionRatio,
		ToleranceRad:     p.Polarizer.ToleranceRad,
		Mosaic:           p.Polarizer.Mosaic,
		SaturationRatio:  p.Sensor.SaturationRatio,
		ElapsedMS:        c.Elapsed.Milliseconds(),
	}
	if len(p.Times) > 1 {
		rec.Interval = p.Times[1].Sub(p.Times[0]).String()
	}
	if math.IsInf(p.Sensor.SNR, 1) {
		rec.NoiseFree = true
	} else {
		rec.SNR = p.Sensor.SNR
	}
	return rec
}

// Save stores a capture and every frame's counts and statistics, returning
// the new capture id.
func Save(db *capturedb.DB, c *Capture) (string, error) {
	params, err := json.Marshal(newParamsRecord(c))
	if err != nil {
		return "", fmt.Errorf("encode params: %w", err)
	}
	p := c.Params
	rec := &capturedb.Capture{
		LatitudeDeg:   p.Site.LatitudeDeg,
		LongitudeDeg:  p.Site.LongitudeDeg,
		HeightM:       p.Site.HeightM,
		LensModel:     p.Lens.Model.String(),
		Rows:          p.Lens.Rows,
		Cols:          p.Lens.Cols,
		FocalLengthUM: p.Lens.FocalLengthUM,
		PixelPitchUM:  p.Lens.PixelPitchUM,
		SkyType:       p.SkyType,
		ADCBits:       p.Sensor.ADCBits,
		Frames:        c.Counts.Frames,
		Seed:          p.Seed,
		ParamsJSON:    params,
	}
	if err := db.InsertCapture(rec); err != nil {
		return "", fmt.Errorf("insert capture: %w", err)
	}

	for t, fs := range c.Summary.Frames {
		f := &capturedb.Frame{
			CaptureID:       rec.CaptureID,
			FrameIndex:      t,
			ObservedAt:      fs.Time.UnixNano(),
			SunAzimuthDeg:   fs.SunAzimuthDeg,
			SunAltitudeDeg:  fs.SunAltitudeDeg,
			MeanDoP:         fs.MeanDoP,
			StdDoP:          fs.StdDoP,
			ValidPixels:     fs.ValidPixels,
			SaturatedPixels: fs.SaturatedPixels,
			Counts:          c.Counts.FrameCounts(t),
		}
		if err := db.InsertFrame(f); err != nil {
			return "", fmt.Errorf("insert frame %d: %w", t, err)
		}
	}
	diagf("stored capture %s with %d frames", rec.CaptureID, len(c.Summary.Frames))
	return rec.CaptureID, nil
}
