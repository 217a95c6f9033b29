// Package quality is made to measure how much embedding disturbed an image
package quality

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"math"

	"golang.org/x/image/bmp"
)

// CalculatePSNR compares two equally long runs of 8-bit channel values. Mismatched or
// empty inputs give 0.
func CalculatePSNR(original, stego []byte) float64 {
	if len(original) != len(stego) || len(original) == 0 {
		return 0
	}

	var mse float64
	for i := range original {
		diff := float64(original[i]) - float64(stego[i])
		mse += diff * diff
	}
	mse /= float64(len(original))

	if mse == 0 {
		return math.Inf(1) // no pixel changed
	}

	const peak = 255.0
	return 20 * math.Log10(peak/math.Sqrt(mse))
}

// ComparePSNR decodes both bitmaps and compares their RGB channels
func ComparePSNR(carrier, stego io.Reader) (float64, error) {
	a, err := bmp.Decode(carrier)
	if err != nil {
		return 0, fmt.Errorf("decode carrier: %w", err)
	}
	b, err := bmp.Decode(stego)
	if err != nil {
		return 0, fmt.Errorf("decode stego image: %w", err)
	}
	if a.Bounds() != b.Bounds() {
		return 0, fmt.Errorf("image bounds differ: %v vs %v", a.Bounds(), b.Bounds())
	}

	return CalculatePSNR(channels(a), channels(b)), nil
}

func channels(img image.Image) []byte {
	bounds := img.Bounds()
	out := make([]byte, 0, bounds.Dx()*bounds.Dy()*3)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			out = append(out, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return out
}

// Measure compares decoded pixels, falling back to the raw bytes after pixelOffset when
// the bitmap decoder rejects either image. It returns 0 when neither comparison applies.
func Measure(carrier, stego []byte, pixelOffset int) float64 {
	psnr, err := ComparePSNR(bytes.NewReader(carrier), bytes.NewReader(stego))
	if err == nil {
		return psnr
	}
	if len(carrier) <= pixelOffset || len(carrier) != len(stego) {
		return 0
	}
	return CalculatePSNR(carrier[pixelOffset:], stego[pixelOffset:])
}

// ValidatePSNR reports whether a stego image stays at or above threshold dB. An
// untouched image always passes.
func ValidatePSNR(psnr, threshold float64) bool {
	return math.IsInf(psnr, 1) || psnr >= threshold
}
