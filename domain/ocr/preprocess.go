package ocr

import (
	"image"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// Preprocessor prepares a cropped region for recognition. Tesseract reads small,
// low-contrast crops poorly, so regions are upscaled and converted to grayscale.
type Preprocessor struct {
	// MinHeight upscales regions shorter than this (0 disables).
	MinHeight int
	// Binarize applies a fixed threshold after grayscale conversion.
	Binarize bool
	// Level is the binarization threshold (0-255).
	Level uint8
}

// DefaultPreprocessor returns the settings used when preprocessing is enabled.
func DefaultPreprocessor() *Preprocessor {
	return &Preprocessor{MinHeight: 48, Binarize: false, Level: 128}
}

// Apply returns a new image; src is never modified.
func (p *Preprocessor) Apply(src image.Image) image.Image {
	if p == nil || src == nil {
		return src
	}
	img := src
	if h := img.Bounds().Dy(); p.MinHeight > 0 && h > 0 && h < p.MinHeight {
		img = imaging.Resize(img, 0, p.MinHeight, imaging.Lanczos)
	}
	if p.Binarize {
		return segment.Threshold(img, p.Level)
	}
	return effect.Grayscale(img)
}
