package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

var (
	// ErrSourceUnavailable reports that a device or file could not be opened or decoded.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrEndOfStream reports that a file source has no more frames.
	ErrEndOfStream = errors.New("end of stream")
	// ErrNotReady reports that no new frame is available yet.
	ErrNotReady = errors.New("frame not ready")
)

// Kind distinguishes the live device from a video file.
type Kind int

const (
	KindLive Kind = iota
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindLive:
		return "live"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Selector identifies where frames come from.
type Selector struct {
	Kind   Kind
	Device int
	Path   string
}

// Live selects the camera device with the given index.
func Live(device int) Selector { return Selector{Kind: KindLive, Device: device} }

// File selects a video file.
func File(path string) Selector { return Selector{Kind: KindFile, Path: path} }

// ParseSelector maps a command-line source to a selector: "live" or "" selects
// device, a bare integer selects that device index, anything else is a file path.
func ParseSelector(s string, device int) Selector {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "live") {
		return Live(device)
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return Live(n)
	}
	return File(s)
}

func (s Selector) String() string {
	if s.Kind == KindFile {
		return "file:" + s.Path
	}
	return fmt.Sprintf("webcam(%d)", s.Device)
}

// Reader decodes frames from an opened device or file. Read blocks until a frame
// is decoded and returns ErrEndOfStream once a file is exhausted; any other error
// is treated as a transient read failure.
type Reader interface {
	Read() (*image.RGBA, error)
	Close() error
}

// Opener opens a Reader for a selector.
type Opener func(Selector) (Reader, error)

// Source hands out frames to the processing loop. NextFrame never blocks
// indefinitely: it returns ErrNotReady when nothing new is available and
// ErrEndOfStream when a file source is exhausted.
type Source interface {
	NextFrame() (FrameSnapshot, error)
	Selector() Selector
	Close() error
}

// StatsSource is implemented by sources that keep capture instrumentation.
type StatsSource interface {
	Stats() CaptureStats
}
