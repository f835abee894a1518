package capture

import (
	"fmt"
	"image"
)

// FromBGR converts packed 8-bit BGR pixels (OpenCV's native layout) into a
// pooled RGBA frame.
func FromBGR(data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(data) < width*height*3 {
		return nil, fmt.Errorf("short frame buffer: %d bytes for %dx%d", len(data), width, height)
	}
	img := AcquireFrame(image.Rect(0, 0, width, height))
	pix := img.Pix
	for i, j := 0, 0; j < width*height*4; i, j = i+3, j+4 {
		pix[j] = data[i+2]
		pix[j+1] = data[i+1]
		pix[j+2] = data[i]
		pix[j+3] = 0xff
	}
	return img, nil
}
