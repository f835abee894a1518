// Package sessionlog keeps the ordered, append-only record of detections seen
// during a session and exports it as plain text.
package sessionlog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrExportIO is returned when the export destination cannot be written.
var ErrExportIO = errors.New("log export failed")

const (
	lineTimeLayout = "2006-01-02 15:04:05"
	fileTimeLayout = "20060102_150405"
)

// Record is one logged detection. Text is the accepted OCR text or the
// "Not detected" sentinel.
type Record struct {
	Time  time.Time
	Class string
	Text  string
}

// String renders the record as a single log line without trailing newline.
func (r Record) String() string {
	return fmt.Sprintf("[%s] Detected: %s, OCR: %s", r.Time.Format(lineTimeLayout), r.Class, r.Text)
}

// Log is safe for concurrent use. The zero value is ready to use.
type Log struct {
	mu      sync.RWMutex
	records []Record
}

// New returns an empty log.
func New() *Log { return &Log{} }

// Append adds records in order.
func (l *Log) Append(recs ...Record) {
	if l == nil || len(recs) == 0 {
		return
	}
	l.mu.Lock()
	l.records = append(l.records, recs...)
	l.mu.Unlock()
}

// Len returns the number of records.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Records returns a copy of all records in append order.
func (l *Log) Records() []Record {
	if l == nil {
		return nil
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// ExportTo writes every record, one per line, to path (truncating it).
func (l *Log) ExportTo(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExportIO, err)
	}
	return l.writeAndClose(f)
}

// Export writes the log into dir using a second-resolution timestamped name
// (log_YYYYMMDD_HHMMSS.txt). A numeric suffix is added when that name is taken,
// so repeated exports never overwrite each other. It returns the written path.
func (l *Log) Export(dir string, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	base := "log_" + now.Format(fileTimeLayout)
	for i := 0; ; i++ {
		name := base + ".txt"
		if i > 0 {
			name = fmt.Sprintf("%s_%d.txt", base, i)
		}
		path := filepath.Join(dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrExportIO, err)
		}
		if err := l.writeAndClose(f); err != nil {
			return "", err
		}
		return path, nil
	}
}

func (l *Log) writeAndClose(f *os.File) error {
	w := bufio.NewWriter(f)
	for _, r := range l.Records() {
		if _, err := w.WriteString(r.String() + "\n"); err != nil {
			f.Close()
			return fmt.Errorf("%w: %w", ErrExportIO, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("%w: %w", ErrExportIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrExportIO, err)
	}
	return nil
}
