package view

import (
	"image"

	"github.com/soocke/carton-vision/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// FramePreview shows the latest annotated frame.
type FramePreview interface {
	UpdateFrame(img image.Image)
}

type framePreview struct {
	label     *LabelWidget
	targetW   int
	targetH   int
	prevPhoto *Img // last Tk photo image instance
}

// Previous photos are deleted before being replaced so off-screen image data
// does not accumulate at the loop's frame rate.

// NewFramePreview creates the image label spanning the given columns of row.
func NewFramePreview(row, columns, maxW, maxH int) FramePreview {
	v := &framePreview{}
	v.setTargetSize(maxW, maxH)
	v.prevPhoto = NewPhoto(Data(images.EncodePNG(images.Placeholder(v.targetW, v.targetH))))
	v.label = Label(Image(v.prevPhoto), Borderwidth(1), Relief("sunken"))
	Grid(v.label, Row(row), Column(0), Columnspan(columns), Sticky("n"), Padx("0.4m"), Pady("0.4m"))
	return v
}

func (v *framePreview) UpdateFrame(img image.Image) {
	if v.label == nil || img == nil {
		return
	}
	scaled := images.ScaleToFit(img, v.targetW, v.targetH)
	photo := NewPhoto(Data(images.EncodePNG(scaled)))
	v.label.Configure(Image(photo))
	if v.prevPhoto != nil {
		v.prevPhoto.Delete()
	}
	v.prevPhoto = photo
}

// setTargetSize updates the scaling bounds used by UpdateFrame.
func (v *framePreview) setTargetSize(w, h int) {
	if w < 50 {
		w = 50
	}
	if h < 50 {
		h = 50
	}
	v.targetW, v.targetH = w, h
}
