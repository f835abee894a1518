package opencv

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/soocke/carton-vision/domain/detection"
)

// YOLOConfig holds YOLO detector configuration.
type YOLOConfig struct {
	ModelPath string
	NMSThresh float32
	InputSize int
}

// DefaultYOLOConfig returns defaults for a 640x640 YOLOv8 export.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath: "models/carton.onnx",
		NMSThresh: 0.45,
		InputSize: 640,
	}
}

// YOLODetector runs a YOLOv8 ONNX export through the OpenCV DNN module.
type YOLODetector struct {
	net       gocv.Net
	cfg       YOLOConfig
	classes   *detection.ClassTable
	logger    *slog.Logger
	inputSize image.Point

	mu     sync.Mutex
	closed bool
}

// NewYOLO loads the model at cfg.ModelPath.
func NewYOLO(cfg YOLOConfig, classes *detection.ClassTable, logger *slog.Logger) (*YOLODetector, error) {
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}
	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultYOLOConfig().InputSize
	}
	if classes == nil {
		classes = detection.NewClassTable(nil)
	}
	return &YOLODetector{
		net:       net,
		cfg:       cfg,
		classes:   classes,
		logger:    logger,
		inputSize: image.Pt(cfg.InputSize, cfg.InputSize),
	}, nil
}

// Detect returns detections with confidence >= threshold, after non-maximum
// suppression, with boxes clamped to the frame.
func (d *YOLODetector) Detect(frame image.Image, threshold float64) ([]detection.Detection, error) {
	if frame == nil {
		return nil, fmt.Errorf("detect: nil frame")
	}
	img, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("detect: convert frame: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("detect: detector closed")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, d.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	dets := d.parseOutput(output, frame.Bounds(), float32(threshold))
	if len(dets) > 0 && d.logger != nil {
		d.logger.Debug("detect", "count", len(dets))
	}
	return detection.FilterByConfidence(dets, threshold), nil
}

// parseOutput decodes a [1, 4+C, N] YOLOv8 tensor.
func (d *YOLODetector) parseOutput(output gocv.Mat, bounds image.Rectangle, thresh float32) []detection.Detection {
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] <= 4 {
		return nil
	}
	cols := sizes[1]
	rows := sizes[2]
	data, err := output.DataPtrFloat32()
	if err != nil || len(data) < cols*rows {
		return nil
	}

	scaleX := float32(bounds.Dx()) / float32(d.inputSize.X)
	scaleY := float32(bounds.Dy()) / float32(d.inputSize.Y)

	var (
		boxes       []image.Rectangle
		confidences []float32
		classIDs    []int
	)
	for i := 0; i < rows; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < cols; c++ {
			if score := data[c*rows+i]; score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < thresh {
			continue
		}
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]
		raw := image.Rect(
			bounds.Min.X+int((cx-w/2)*scaleX),
			bounds.Min.Y+int((cy-h/2)*scaleY),
			bounds.Min.X+int((cx+w/2)*scaleX),
			bounds.Min.Y+int((cy+h/2)*scaleY),
		)
		box, ok := detection.NormalizeBox(raw, bounds)
		if !ok {
			continue
		}
		boxes = append(boxes, box)
		confidences = append(confidences, maxScore)
		classIDs = append(classIDs, maxClassID)
	}
	if len(boxes) == 0 {
		return nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, thresh, d.cfg.NMSThresh)
	dets := make([]detection.Detection, 0, len(indices))
	for _, idx := range indices {
		dets = append(dets, detection.Detection{
			ClassID:    classIDs[idx],
			Class:      d.classes.Name(classIDs[idx]),
			Confidence: float64(confidences[idx]),
			Box:        boxes[idx],
		})
	}
	return dets
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.net.Close()
}
