package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/soocke/carton-vision/domain/annotate"
)

// Annotator draws boxes, class labels and OCR lines with OpenCV primitives.
type Annotator struct {
	style annotate.Style
}

// NewAnnotator returns an annotator using style.
func NewAnnotator(style annotate.Style) *Annotator {
	if style.Thickness <= 0 {
		style.Thickness = annotate.DefaultStyle().Thickness
	}
	if style.FontScale <= 0 {
		style.FontScale = annotate.DefaultStyle().FontScale
	}
	return &Annotator{style: style}
}

// Annotate draws onto a converted copy of frame.
func (a *Annotator) Annotate(frame image.Image, items []annotate.Item) (image.Image, error) {
	if frame == nil {
		return nil, fmt.Errorf("annotate: nil frame")
	}
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("annotate: convert frame: %w", err)
	}
	defer mat.Close()

	for _, it := range items {
		box := it.Detection.Box
		gocv.Rectangle(&mat, box, a.style.Box, a.style.Thickness)
		gocv.PutText(&mat, annotate.LabelText(it.Detection.Class, it.Detection.Confidence),
			annotate.LabelAnchor(box), gocv.FontHersheySimplex, a.style.FontScale, a.style.Box, a.style.Thickness)
		if it.Text != "" {
			gocv.PutText(&mat, annotate.OCRText(it.Text),
				annotate.TextAnchor(box), gocv.FontHersheySimplex, a.style.FontScale, a.style.Text, a.style.Thickness)
		}
	}
	out, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("annotate: convert result: %w", err)
	}
	return out, nil
}
