package capturedb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/polarsky/internal/raster"
)

// ErrNotFound is returned when a capture id has no row.
var ErrNotFound = errors.New("capture not found")

// Capture is one persisted simulation run.
type Capture struct {
	CaptureID     string          `json:"capture_id"`
	CreatedAt     int64           `json:"created_unix_nanos"`
	LatitudeDeg   float64         `json:"latitude_deg"`
	LongitudeDeg  float64         `json:"longitude_deg"`
	HeightM       float64         `json:"height_m"`
	LensModel     string          `json:"lens_model"`
	Rows          int             `json:"rows"`
	Cols          int             `json:"cols"`
	FocalLengthUM float64         `json:"focal_length_um"`
	PixelPitchUM  float64         `json:"pixel_pitch_um"`
	SkyType       int             `json:"sky_type"`
	ADCBits       int             `json:"adc_bits"`
	Frames        int             `json:"frames"`
	Seed          uint64          `json:"seed"`
	ParamsJSON    json.RawMessage `json:"params_json,omitempty"`
}

// Frame is one exposure of a capture. Counts is a single-frame raster; it
// is left nil by ListFrames.
type Frame struct {
	CaptureID       string
	FrameIndex      int
	ObservedAt      int64
	SunAzimuthDeg   float64
	SunAltitudeDeg  float64
	MeanDoP         float64
	StdDoP          float64
	ValidPixels     int
	SaturatedPixels int
	Counts          *raster.Counts
}

// Time returns the observation instant.
func (f *Frame) Time() time.Time { return time.Unix(0, f.ObservedAt).UTC() }

// InsertCapture persists c. An empty CaptureID is filled with a new UUID
// and a zero CreatedAt with the current time.
func (db *DB) InsertCapture(c *Capture) error {
	if c.CaptureID == "" {
		c.CaptureID = uuid.New().String()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().UnixNano()
	}
	var params interface{}
	if len(c.ParamsJSON) > 0 {
		params = string(c.ParamsJSON)
	}
	return retryOnBusy(func() error {
		_, err := db.Exec(`
			INSERT INTO captures (
				capture_id, created_unix_nanos, latitude_deg, longitude_deg, height_m,
				lens_model, rows, cols, focal_length_um, pixel_pitch_um,
				sky_type, adc_bits, frames, seed, params_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.CaptureID, c.CreatedAt, c.LatitudeDeg, c.LongitudeDeg, c.HeightM,
			c.LensModel, c.Rows, c.Cols, c.FocalLengthUM, c.PixelPitchUM,
			c.SkyType, c.ADCBits, c.Frames, int64(c.Seed), params,
		)
		return err
	})
}

// InsertFrame persists f and its counts blob. The capture row must exist.
func (db *DB) InsertFrame(f *Frame) error {
	if f.Counts == nil {
		return fmt.Errorf("frame %d of %s has no counts", f.FrameIndex, f.CaptureID)
	}
	blob, err := encodeCounts(f.Counts)
	if err != nil {
		return fmt.Errorf("failed to encode counts: %w", err)
	}
	return retryOnBusy(func() error {
		_, err := db.Exec(`
			INSERT INTO capture_frames (
				capture_id, frame_index, observed_unix_nanos, sun_azimuth_deg, sun_altitude_deg,
				mean_dop, std_dop, valid_pixels, saturated_pixels, counts_blob
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.CaptureID, f.FrameIndex, f.ObservedAt, f.SunAzimuthDeg, f.SunAltitudeDeg,
			nullable(f.MeanDoP), nullable(f.StdDoP), f.ValidPixels, f.SaturatedPixels, blob,
		)
		return err
	})
}

const captureColumns = `capture_id, created_unix_nanos, latitude_deg, longitude_deg, height_m,
	lens_model, rows, cols, focal_length_um, pixel_pitch_um,
	sky_type, adc_bits, frames, seed, params_json`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCapture(row scanner) (*Capture, error) {
	var c Capture
	var seed int64
	var params sql.NullString
	err := row.Scan(
		&c.CaptureID, &c.CreatedAt, &c.LatitudeDeg, &c.LongitudeDeg, &c.HeightM,
		&c.LensModel, &c.Rows, &c.Cols, &c.FocalLengthUM, &c.PixelPitchUM,
		&c.SkyType, &c.ADCBits, &c.Frames, &seed, &params,
	)
	if err != nil {
		return nil, err
	}
	c.Seed = uint64(seed)
	if params.Valid {
		c.ParamsJSON = json.RawMessage(params.String)
	}
	return &c, nil
}

// GetCapture returns the capture with id, or ErrNotFound.
func (db *DB) GetCapture(id string) (*Capture, error) {
	row := db.QueryRow(`SELECT `+captureColumns+` FROM captures WHERE capture_id = ?`, id)
	c, err := scanCapture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capture %s: %w", id, err)
	}
	return c, nil
}

// ListCaptures returns up to limit captures, newest first. A limit of zero
// or less returns all.
func (db *DB) ListCaptures(limit int) ([]*Capture, error) {
	query := `SELECT ` + captureColumns + ` FROM captures ORDER BY created_unix_nanos DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list captures: %w", err)
	}
	defer rows.Close()

	var out []*Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capture: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListFrames returns the frames of a capture ordered by index, without
// their counts.
func (db *DB) ListFrames(captureID string) ([]*Frame, error) {
	rows, err := db.Query(`
		SELECT capture_id, frame_index, observed_unix_nanos, sun_azimuth_deg, sun_altitude_deg,
			mean_dop, std_dop, valid_pixels, saturated_pixels
		FROM capture_frames WHERE capture_id = ? ORDER BY frame_index`, captureID)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	defer rows.Close()

	var out []*Frame
	for rows.Next() {
		var f Frame
		var mean, std sql.NullFloat64
		if err := rows.Scan(&f.CaptureID, &f.FrameIndex, &f.ObservedAt, &f.SunAzimuthDeg, &f.SunAltitudeDeg,
			&mean, &std, &f.ValidPixels, &f.SaturatedPixels); err != nil {
			return nil, fmt.Errorf("failed to scan frame: %w", err)
		}
		f.MeanDoP = orNaN(mean)
		f.StdDoP = orNaN(std)
		out = append(out, &f)
	}
	return out, rows.Err()
}

// LoadCounts reassembles the digital counts of every frame of a capture
// into one [frame, row, column] raster.
func (db *DB) LoadCounts(captureID string) (*raster.Counts, error) {
	rows, err := db.Query(`
		SELECT frame_index, counts_blob FROM capture_frames
		WHERE capture_id = ? ORDER BY frame_index`, captureID)
	if err != nil {
		return nil, fmt.Errorf("failed to load counts: %w", err)
	}
	defer rows.Close()

	var frames []*raster.Counts
	for rows.Next() {
		var idx int
		var blob []byte
		if err := rows.Scan(&idx, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}
		if idx != len(frames) {
			return nil, fmt.Errorf("capture %s is missing frame %d", captureID, len(frames))
		}
		c, err := decodeCounts(blob)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", idx, err)
		}
		if len(frames) > 0 && (c.Rows != frames[0].Rows || c.Cols != frames[0].Cols) {
			return nil, fmt.Errorf("frame %d is %dx%d, want %dx%d", idx, c.Rows, c.Cols, frames[0].Rows, frames[0].Cols)
		}
		frames = append(frames, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: no frames for %s", ErrNotFound, captureID)
	}

	out := raster.NewCounts(len(frames), frames[0].Rows, frames[0].Cols)
	n := out.FrameSize()
	for t, f := range frames {
		copy(out.Data[t*n:], f.Data)
		copy(out.Valid[t*n:], f.Valid)
	}
	return out, nil
}

func nullable(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
