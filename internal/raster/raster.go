package raster

import (
	"fmt"
	"math"
)

// Plane is a single [row, column] float32 field.
type Plane struct {
	Rows, Cols int
	Data       []float32
}

// NewPlane allocates a zeroed plane.
func NewPlane(rows, cols int) *Plane {
	return &Plane{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// At returns the value at (r, c).
func (p *Plane) At(r, c int) float32 { return p.Data[r*p.Cols+c] }

// Set stores v at (r, c).
func (p *Plane) Set(r, c int, v float32) { p.Data[r*p.Cols+c] = v }

// Fill sets every element to v.
func (p *Plane) Fill(v float32) {
	for i := range p.Data {
		p.Data[i] = v
	}
}

// Clone returns a deep copy.
func (p *Plane) Clone() *Plane {
	out := &Plane{Rows: p.Rows, Cols: p.Cols, Data: make([]float32, len(p.Data))}
	copy(out.Data, p.Data)
	return out
}

// Cube is a time-indexed [frame, row, column] float32 field.
type Cube struct {
	Frames, Rows, Cols int
	Data               []float32
}

// NewCube allocates a zeroed cube.
func NewCube(frames, rows, cols int) *Cube {
	return &Cube{Frames: frames, Rows: rows, Cols: cols, Data: make([]float32, frames*rows*cols)}
}

// Broadcast repeats a plane over the given number of frames.
func Broadcast(p *Plane, frames int) *Cube {
	c := NewCube(frames, p.Rows, p.Cols)
	n := p.Rows * p.Cols
	for t := 0; t < frames; t++ {
		copy(c.Data[t*n:(t+1)*n], p.Data)
	}
	return c
}

// Index returns the flat offset of (t, r, c).
func (c *Cube) Index(t, r, col int) int { return (t*c.Rows+r)*c.Cols + col }

// At returns the value at (t, r, c).
func (c *Cube) At(t, r, col int) float32 { return c.Data[c.Index(t, r, col)] }

// Set stores v at (t, r, c).
func (c *Cube) Set(t, r, col int, v float32) { c.Data[c.Index(t, r, col)] = v }

// Fill sets every element to v.
func (c *Cube) Fill(v float32) {
	for i := range c.Data {
		c.Data[i] = v
	}
}

// FrameSize is Rows*Cols.
func (c *Cube) FrameSize() int { return c.Rows * c.Cols }

// Frame returns a view of frame t. The returned plane shares storage.
func (c *Cube) Frame(t int) *Plane {
	n := c.FrameSize()
	return &Plane{Rows: c.Rows, Cols: c.Cols, Data: c.Data[t*n : (t+1)*n]}
}

// Clone returns a deep copy.
func (c *Cube) Clone() *Cube {
	out := &Cube{Frames: c.Frames, Rows: c.Rows, Cols: c.Cols, Data: make([]float32, len(c.Data))}
	copy(out.Data, c.Data)
	return out
}

// Shape returns the cube's dimensions as a string for diagnostics.
func (c *Cube) Shape() string { return fmt.Sprintf("[%d,%d,%d]", c.Frames, c.Rows, c.Cols) }

// ValidCount returns the number of non-NaN elements.
func (c *Cube) ValidCount() int {
	n := 0
	for _, v := range c.Data {
		if !IsInvalid(v) {
			n++
		}
	}
	return n
}

// Invalid is the sentinel for masked float pixels.
func Invalid() float32 { return float32(math.NaN()) }

// IsInvalid reports whether v is the masked-pixel sentinel.
func IsInvalid(v float32) bool { return v != v }

// MustMatch panics unless every cube has the same shape as the first.
func MustMatch(cubes ...*Cube) {
	if len(cubes) == 0 {
		return
	}
	ref := cubes[0]
	if ref == nil {
		panic("raster: nil cube")
	}
	for i, c := range cubes[1:] {
		if c == nil {
			panic(fmt.Sprintf("raster: cube %d is nil", i+1))
		}
		if c.Frames != ref.Frames || c.Rows != ref.Rows || c.Cols != ref.Cols {
			panic(fmt.Sprintf("raster: shape mismatch: cube %d is %s, want %s", i+1, c.Shape(), ref.Shape()))
		}
		if len(c.Data) != len(ref.Data) {
			panic(fmt.Sprintf("raster: cube %d has %d elements, want %d", i+1, len(c.Data), len(ref.Data)))
		}
	}
}

// Offsets is a [row, column] field of planar sensor offsets x + iy.
type Offsets struct {
	Rows, Cols int
	Data       []complex128
}

// At returns the offset at (r, c).
func (o *Offsets) At(r, c int) complex128 { return o.Data[r*o.Cols+c] }
