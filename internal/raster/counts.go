package raster

import "fmt"

// Counts is a [frame, row, column] field of digital numbers. Valid[i] is
// false where the upstream pixel was masked; Data[i] is 0 there.
type Counts struct {
	Frames, Rows, Cols int
	Data               []int32
	Valid              []bool
}

// NewCounts allocates a zeroed, all-valid counts cube.
func NewCounts(frames, rows, cols int) *Counts {
	n := frames * rows * cols
	valid := make([]bool, n)
	for i := range valid {
		valid[i] = true
	}
	return &Counts{Frames: frames, Rows: rows, Cols: cols, Data: make([]int32, n), Valid: valid}
}

// Index returns the flat offset of (t, r, c).
func (c *Counts) Index(t, r, col int) int { return (t*c.Rows+r)*c.Cols + col }

// At returns the count at (t, r, c) and whether it is valid.
func (c *Counts) At(t, r, col int) (int32, bool) {
	i := c.Index(t, r, col)
	return c.Data[i], c.Valid[i]
}

// FrameSize is Rows*Cols.
func (c *Counts) FrameSize() int { return c.Rows * c.Cols }

// Shape returns the dimensions as a string for diagnostics.
func (c *Counts) Shape() string { return fmt.Sprintf("[%d,%d,%d]", c.Frames, c.Rows, c.Cols) }

// Saturated counts valid pixels in frame t that reached maxCount.
func (c *Counts) Saturated(t int, maxCount int32) int {
	n := c.FrameSize()
	sat := 0
	for i := t * n; i < (t+1)*n; i++ {
		if c.Valid[i] && c.Data[i] >= maxCount {
			sat++
		}
	}
	return sat
}

// ValidInFrame counts valid pixels in frame t.
func (c *Counts) ValidInFrame(t int) int {
	n := c.FrameSize()
	v := 0
	for i := t * n; i < (t+1)*n; i++ {
		if c.Valid[i] {
			v++
		}
	}
	return v
}

// FrameCounts copies frame t into a single-frame Counts.
func (c *Counts) FrameCounts(t int) *Counts {
	n := c.FrameSize()
	out := &Counts{Frames: 1, Rows: c.Rows, Cols: c.Cols, Data: make([]int32, n), Valid: make([]bool, n)}
	copy(out.Data, c.Data[t*n:(t+1)*n])
	copy(out.Valid, c.Valid[t*n:(t+1)*n])
	return out
}
