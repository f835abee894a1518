// Package tesseract recognizes text in image regions with the Tesseract engine.
package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/soocke/carton-vision/domain/ocr"
)

// Config selects language and data location for the engine.
type Config struct {
	Language       string
	TessdataPrefix string
}

// Engine owns a single Tesseract client. Calls are serialized.
type Engine struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates and configures a Tesseract client.
func New(cfg Config) (*Engine, error) {
	client := gosseract.NewClient()
	if cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	lang := cfg.Language
	if lang == "" {
		lang = "eng"
	}
	if err := client.SetLanguage(lang); err != nil {
		client.Close()
		return nil, fmt.Errorf("set OCR language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	return &Engine{client: client}, nil
}

// Recognize returns one candidate per recognized text line, in reading order.
func (e *Engine) Recognize(region image.Image) ([]ocr.RecognizedText, error) {
	if region == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, region, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode region: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil, fmt.Errorf("tesseract client closed")
	}
	if err := e.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("bounding boxes: %w", err)
	}
	return candidates(boxes), nil
}

// candidates converts engine boxes to candidates, dropping blank lines and
// scaling confidence from 0-100 to 0-1.
func candidates(boxes []gosseract.BoundingBox) []ocr.RecognizedText {
	out := make([]ocr.RecognizedText, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		conf := b.Confidence / 100.0
		if conf < 0 {
			conf = 0
		}
		if conf > 1 {
			conf = 1
		}
		out = append(out, ocr.RecognizedText{Text: text, Confidence: conf})
	}
	return out
}

// Version reports the linked Tesseract version.
func (e *Engine) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return ""
	}
	return e.client.Version()
}

// Close releases the client.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	return err
}
