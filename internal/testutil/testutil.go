// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"bytes"
	"image"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/banshee-data/polarsky/internal/raster"
)

// Epoch is a fixed instant used by tests that need a realistic sun:
// mid-morning at Greenwich in early summer.
var Epoch = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertNear checks |got-want| <= tol. NaN never matches.
func AssertNear(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if math.IsNaN(got) || math.IsNaN(want) || math.Abs(got-want) > tol {
		t.Errorf("%s = %g, want %g ± %g", name, got, want, tol)
	}
}

// UniformCube returns a [frames, rows, cols] cube filled with v.
func UniformCube(frames, rows, cols int, v float32) *raster.Cube {
	c := raster.NewCube(frames, rows, cols)
	c.Fill(v)
	return c
}

// AssertMaskEqual checks that got is invalid exactly where want is.
func AssertMaskEqual(t testing.TB, name string, want, got *raster.Cube) {
	t.Helper()
	if len(want.Data) != len(got.Data) {
		t.Fatalf("%s: %d elements, want %d", name, len(got.Data), len(want.Data))
	}
	for i := range want.Data {
		if raster.IsInvalid(want.Data[i]) != raster.IsInvalid(got.Data[i]) {
			t.Errorf("%s: element %d mask = %v, want %v", name, i,
				raster.IsInvalid(got.Data[i]), raster.IsInvalid(want.Data[i]))
		}
	}
}

// DecodePNG decodes a PNG or fails the test.
func DecodePNG(t testing.TB, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	return img
}
