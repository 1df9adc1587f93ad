package capturedb

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"

	"github.com/banshee-data/polarsky/internal/raster"
)

type countsFrame struct {
	Rows, Cols int
	Data       []int32
	Valid      []bool
}

// encodeCounts compresses a single-frame counts raster into a gob+gzip blob.
func encodeCounts(c *raster.Counts) ([]byte, error) {
	if c.Frames != 1 {
		return nil, fmt.Errorf("counts blob holds one frame, got %s", c.Shape())
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(countsFrame{Rows: c.Rows, Cols: c.Cols, Data: c.Data, Valid: c.Valid}); err != nil {
		gz.Close()
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeCounts reverses encodeCounts.
func decodeCounts(blob []byte) (*raster.Counts, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty counts blob")
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var f countsFrame
	if err := gob.NewDecoder(gz).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode counts: %w", err)
	}
	n := f.Rows * f.Cols
	if len(f.Data) != n || len(f.Valid) != n {
		return nil, fmt.Errorf("counts blob holds %d values for a %dx%d frame", len(f.Data), f.Rows, f.Cols)
	}
	return &raster.Counts{Frames: 1, Rows: f.Rows, Cols: f.Cols, Data: f.Data, Valid: f.Valid}, nil
}
