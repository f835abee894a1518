// Package annotate describes how detections and recognized text are drawn on a
// frame and where annotated frames are written. Rendering backends implement
// Annotator and Persister; the layout rules live here.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/soocke/carton-vision/domain/detection"
)

const (
	// LabelOffset is the distance above the box top edge for the class label.
	LabelOffset = 10
	// TextOffset is the distance below the box bottom edge for the OCR line.
	TextOffset = 20

	frameNameLayout = "20060102_150405"
)

// Item is one detection together with its accepted OCR text. Text is empty
// when no candidate was accepted, in which case no OCR line is drawn.
type Item struct {
	Detection detection.Detection
	Text      string
}

// Annotator renders items onto a copy of frame. The input frame is not modified.
type Annotator interface {
	Annotate(frame image.Image, items []Item) (image.Image, error)
}

// Persister stores an annotated frame and returns the written path.
type Persister interface {
	Persist(img image.Image, at time.Time) (string, error)
}

// Style holds drawing colors and stroke parameters.
type Style struct {
	Box       color.RGBA
	Text      color.RGBA
	Thickness int
	FontScale float64
}

// DefaultStyle draws green boxes and blue OCR text.
func DefaultStyle() Style {
	return Style{
		Box:       color.RGBA{R: 0, G: 255, B: 0, A: 255},
		Text:      color.RGBA{R: 0, G: 0, B: 255, A: 255},
		Thickness: 2,
		FontScale: 0.6,
	}
}

// ParseStyle builds a style from hex colors such as "#00ff00".
func ParseStyle(boxHex, textHex string) (Style, error) {
	s := DefaultStyle()
	box, err := parseHex(boxHex)
	if err != nil {
		return s, fmt.Errorf("box color: %w", err)
	}
	text, err := parseHex(textHex)
	if err != nil {
		return s, fmt.Errorf("text color: %w", err)
	}
	s.Box, s.Text = box, text
	return s, nil
}

func parseHex(h string) (color.RGBA, error) {
	c, err := colorful.Hex(h)
	if err != nil {
		return color.RGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// LabelText formats the class label drawn above a box.
func LabelText(class string, confidence float64) string {
	return fmt.Sprintf("%s (%.2f)", class, confidence)
}

// OCRText formats the recognized-text line drawn below a box.
func OCRText(text string) string {
	return "OCR: " + text
}

// LabelAnchor is the baseline origin of the class label.
func LabelAnchor(box image.Rectangle) image.Point {
	return image.Pt(box.Min.X, box.Min.Y-LabelOffset)
}

// TextAnchor is the baseline origin of the OCR line.
func TextAnchor(box image.Rectangle) image.Point {
	return image.Pt(box.Min.X, box.Max.Y+TextOffset)
}

// FrameFileName names an annotated frame captured at t with microsecond
// resolution, e.g. frame_20240309_140507_123456.jpg.
func FrameFileName(t time.Time) string {
	return fmt.Sprintf("frame_%s_%06d.jpg", t.Format(frameNameLayout), t.Nanosecond()/1000)
}
