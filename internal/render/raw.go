package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/banshee-data/polarsky/internal/raster"
)

// RawImage maps frame t of counts onto a 16-bit grayscale image. Counts are
// shifted so full scale fills 16 bits (left for shallow ADCs, right for
// deeper ones); negative and invalid counts are black.
func RawImage(c *raster.Counts, t, adcBits int) (*image.Gray16, error) {
	if t < 0 || t >= c.Frames {
		return nil, fmt.Errorf("frame %d out of range [0,%d)", t, c.Frames)
	}
	if adcBits < 1 || adcBits > 31 {
		return nil, fmt.Errorf("adc bits %d outside [1,31]", adcBits)
	}
	img := image.NewGray16(image.Rect(0, 0, c.Cols, c.Rows))
	for r := 0; r < c.Rows; r++ {
		for col := 0; col < c.Cols; col++ {
			v, ok := c.At(t, r, col)
			var g uint16
			if ok && v > 0 {
				g = scale16(int64(v), adcBits)
			}
			img.SetGray16(col, r, color.Gray16{Y: g})
		}
	}
	return img, nil
}

func scale16(v int64, adcBits int) uint16 {
	if adcBits > 16 {
		v >>= uint(adcBits - 16)
	} else {
		v <<= uint(16 - adcBits)
	}
	return uint16(min(v, 0xffff))
}

// RawPNG writes frame t of counts as a 16-bit grayscale PNG.
func RawPNG(w io.Writer, c *raster.Counts, t, adcBits int) error {
	img, err := RawImage(c, t, adcBits)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
