package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	captureStatsLogInterval = 5 * time.Second
	readRetryDelay          = 5 * time.Millisecond
	closeWait               = 2 * time.Second
)

// Open opens sel with opener and wraps the reader in the matching source.
// Failures are reported as ErrSourceUnavailable wrapping the cause.
func Open(sel Selector, opener Opener, logger *slog.Logger) (Source, error) {
	if opener == nil {
		return nil, fmt.Errorf("%w: %s: no opener", ErrSourceUnavailable, sel)
	}
	r, err := opener(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, sel, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s: nil reader", ErrSourceUnavailable, sel)
	}
	if sel.Kind == KindFile {
		return newFileSource(sel, r, logger), nil
	}
	s := newLiveSource(sel, r, logger)
	s.start()
	return s, nil
}

// OpenResult describes the outcome of OpenOrLive.
type OpenResult struct {
	Source    Source
	Requested Selector
	Opened    Selector
	// Err is the failure of the requested selector when a fallback happened
	// or nothing could be opened.
	Err error
}

// FellBack reports whether the live device was opened in place of the request.
func (r OpenResult) FellBack() bool { return r.Source != nil && r.Err != nil }

// OpenOrLive opens sel and falls back to the live device when sel cannot be
// opened. Source is nil only if the live device fails as well.
func OpenOrLive(sel Selector, device int, opener Opener, logger *slog.Logger) OpenResult {
	res := OpenResult{Requested: sel}
	src, err := Open(sel, opener, logger)
	if err == nil {
		res.Source, res.Opened = src, sel
		return res
	}
	res.Err = err
	if logger != nil {
		logger.Warn("source open failed", "selector", sel.String(), "error", err)
	}
	live := Live(device)
	if sel.Kind == KindLive && sel.Device == device {
		return res
	}
	src, lerr := Open(live, opener, logger)
	if lerr != nil {
		res.Err = errors.Join(err, lerr)
		return res
	}
	res.Source, res.Opened = src, live
	return res
}

// liveSource reads a device on a background goroutine and keeps only the newest
// frame. NextFrame takes ownership of that frame, so each frame is handed out
// at most once; frames replaced before being taken go back to the pool.
type liveSource struct {
	sel    Selector
	reader Reader
	logger *slog.Logger

	running      atomic.Bool
	done         chan struct{}
	latest       atomic.Pointer[FrameSnapshot]
	eof          atomic.Bool
	captures     atomic.Uint64
	skipped      atomic.Uint64
	superseded   atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
	lastCapture  atomic.Int64
	closeOnce    sync.Once
}

func newLiveSource(sel Selector, r Reader, logger *slog.Logger) *liveSource {
	return &liveSource{sel: sel, reader: r, logger: logger, done: make(chan struct{})}
}

func (s *liveSource) Selector() Selector { return s.sel }

func (s *liveSource) start() {
	if s.running.Load() {
		return
	}
	s.running.Store(true)
	go s.loop()
}

func (s *liveSource) NextFrame() (FrameSnapshot, error) {
	if snap := s.latest.Swap(nil); snap != nil {
		return *snap, nil
	}
	if s.eof.Load() {
		return FrameSnapshot{}, ErrEndOfStream
	}
	return FrameSnapshot{}, ErrNotReady
}

func (s *liveSource) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	avgMicros := 0.0
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
		avgMicros = float64(avg) / float64(time.Microsecond)
	}
	var last time.Time
	age := time.Duration(0)
	if n := s.lastCapture.Load(); n != 0 {
		last = time.Unix(0, n)
		age = time.Since(last)
	}
	return CaptureStats{
		Captures:         captures,
		Skipped:          s.skipped.Load(),
		Superseded:       s.superseded.Load(),
		AvgCapture:       avg,
		AvgCaptureMicros: avgMicros,
		LastCapture:      last,
		LatestFrameAge:   age,
		Sequence:         s.sequence.Load(),
	}
}

// Close stops the reader goroutine and waits briefly for it to release the device.
func (s *liveSource) Close() error {
	s.closeOnce.Do(func() {
		s.running.Store(false)
		select {
		case <-s.done:
		case <-time.After(closeWait):
			if s.logger != nil {
				s.logger.Warn("capture close timed out", "selector", s.sel.String())
			}
		}
		if snap := s.latest.Swap(nil); snap != nil {
			RecycleFrame(snap.Image)
		}
	})
	return nil
}

func (s *liveSource) loop() {
	defer close(s.done)
	defer func() {
		if err := s.reader.Close(); err != nil && s.logger != nil {
			s.logger.Error("capture release", "error", err)
		}
	}()
	logTicker := time.NewTicker(captureStatsLogInterval)
	defer logTicker.Stop()
	for s.running.Load() {
		start := time.Now()
		img, err := s.reader.Read()
		if errors.Is(err, ErrEndOfStream) {
			s.eof.Store(true)
			return
		}
		if err != nil || img == nil {
			s.skipped.Add(1)
			if err != nil && s.logger != nil {
				s.logger.Debug("capture read", "error", err)
			}
			time.Sleep(readRetryDelay)
			continue
		}

		elapsed := time.Since(start)
		s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
		s.captures.Add(1)
		now := time.Now()
		s.lastCapture.Store(now.UnixNano())
		seq := s.sequence.Add(1)
		if prev := s.latest.Swap(&FrameSnapshot{Image: img, CapturedAt: now, Sequence: seq}); prev != nil {
			s.superseded.Add(1)
			RecycleFrame(prev.Image)
		}

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}
	}
}

func (s *liveSource) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"superseded", stats.Superseded,
		"avg_capture", stats.AvgCapture,
		"age", stats.LatestFrameAge,
	)
}

// fileSource decodes one frame per NextFrame call so that pausing the loop
// neither skips nor repeats frames.
type fileSource struct {
	sel    Selector
	reader Reader
	logger *slog.Logger

	mu       sync.Mutex
	eof      bool
	closed   bool
	sequence uint64
}

func newFileSource(sel Selector, r Reader, logger *slog.Logger) *fileSource {
	return &fileSource{sel: sel, reader: r, logger: logger}
}

func (s *fileSource) Selector() Selector { return s.sel }

func (s *fileSource) NextFrame() (FrameSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eof || s.closed {
		return FrameSnapshot{}, ErrEndOfStream
	}
	img, err := s.reader.Read()
	if errors.Is(err, ErrEndOfStream) {
		s.eof = true
		if s.logger != nil {
			s.logger.Info("end of stream", "selector", s.sel.String(), "frames", s.sequence)
		}
		return FrameSnapshot{}, ErrEndOfStream
	}
	if err != nil {
		return FrameSnapshot{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	if img == nil {
		return FrameSnapshot{}, ErrNotReady
	}
	s.sequence++
	return FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: s.sequence}, nil
}

func (s *fileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.reader.Close()
}
