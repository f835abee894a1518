package images

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// EncodePNG encodes an image to PNG bytes for Tk photo images. Errors are
// ignored and may return an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = imaging.Encode(&buf, img, imaging.PNG)
	return buf.Bytes()
}

// ScaleToFit scales src down so it fits within maxW x maxH preserving aspect
// ratio. If the source already fits, the original is returned.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	return imaging.Fit(src, maxW, maxH, imaging.Linear)
}

// Placeholder returns a blank frame shown before the first image arrives.
func Placeholder(w, h int) image.Image {
	if w < 1 || h < 1 {
		w, h = 1, 1
	}
	return imaging.New(w, h, image.Black.C)
}
