package recognition

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// ScaleImage decodes an image, scales it by factor (0 < factor <= 1) and
// re-encodes it as JPEG. It returns the encoded image and its original size.
func ScaleImage(data []byte, factor float64) ([]byte, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if factor <= 0 || factor >= 1 {
		return data, width, height, nil
	}

	newWidth := max(1, int(float64(width)*factor))
	newHeight := max(1, int(float64(height)*factor))
	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.ApproxBiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 90}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode scaled image: %w", err)
	}
	return buf.Bytes(), width, height, nil
}

// FitImage shrinks an image so that neither side exceeds maxSize.
func FitImage(data []byte, maxSize int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	longest := max(cfg.Width, cfg.Height)
	if maxSize <= 0 || longest <= maxSize {
		return data, nil
	}
	scaled, _, _, err := ScaleImage(data, float64(maxSize)/float64(longest))
	return scaled, err
}
