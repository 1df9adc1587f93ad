// Package render turns capture rasters into artifacts: colour heat maps and
// 16-bit raw frames as PNG, and an interactive sky chart as HTML.
package render
