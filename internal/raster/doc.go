// Package raster holds the array types passed between the capture stages.
//
// Every stage consumes the previous stage's output, so the types here are
// deliberately plain: flat row-major slices plus their dimensions. A Cube
// is indexed [frame, row, column]; a Plane is a single [row, column] frame.
//
// Floating-point rasters use NaN as the invalid-pixel sentinel. Counts are
// integers, so they carry a parallel Valid mask instead.
//
// Shape mismatches between stages are caller errors and panic via MustMatch.
package raster
