// Package opencv binds the capture, detection and annotation contracts to
// OpenCV through gocv.
package opencv

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/soocke/carton-vision/domain/capture"
)

var errClosed = errors.New("reader closed")

// videoReader adapts gocv.VideoCapture to capture.Reader. The first frame is
// read while opening so an undecodable file fails at Open instead of on the
// first tick.
type videoReader struct {
	mu      sync.Mutex
	vc      *gocv.VideoCapture
	mat     gocv.Mat
	file    bool
	pending *image.RGBA
	closed  bool
}

// OpenReader opens the device or file named by sel.
func OpenReader(sel capture.Selector) (capture.Reader, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	switch sel.Kind {
	case capture.KindFile:
		vc, err = gocv.VideoCaptureFile(sel.Path)
	default:
		vc, err = gocv.VideoCaptureDevice(sel.Device)
	}
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("capture not opened: %s", sel)
	}
	if sel.Kind == capture.KindLive {
		vc.Set(gocv.VideoCaptureBufferSize, 1)
	}
	r := &videoReader{vc: vc, mat: gocv.NewMat(), file: sel.Kind == capture.KindFile}
	first, err := r.decode()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("read first frame: %w", err)
	}
	r.pending = first
	return r, nil
}

func (r *videoReader) Read() (*image.RGBA, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errClosed
	}
	if img := r.pending; img != nil {
		r.pending = nil
		return img, nil
	}
	return r.decode()
}

func (r *videoReader) decode() (*image.RGBA, error) {
	if ok := r.vc.Read(&r.mat); !ok || r.mat.Empty() {
		if r.file {
			return nil, capture.ErrEndOfStream
		}
		return nil, errors.New("device returned no frame")
	}
	return matToRGBA(r.mat)
}

func (r *videoReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.pending != nil {
		capture.RecycleFrame(r.pending)
		r.pending = nil
	}
	r.mat.Close()
	return r.vc.Close()
}

// matToRGBA converts a BGR or grayscale Mat into a pooled RGBA frame.
func matToRGBA(m gocv.Mat) (*image.RGBA, error) {
	bgr := m
	if m.Channels() != 3 {
		converted := gocv.NewMat()
		defer converted.Close()
		code := gocv.ColorGrayToBGR
		if m.Channels() == 4 {
			code = gocv.ColorBGRAToBGR
		}
		gocv.CvtColor(m, &converted, code)
		bgr = converted
	}
	return capture.FromBGR(bgr.ToBytes(), bgr.Cols(), bgr.Rows())
}
