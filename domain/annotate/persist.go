package annotate

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

const jpegQuality = 95

// DirPersister writes annotated frames as JPEG files into Dir, creating the
// directory on first use.
type DirPersister struct {
	Dir string

	mu      sync.Mutex
	ensured bool
}

// NewDirPersister returns a persister rooted at dir.
func NewDirPersister(dir string) *DirPersister {
	return &DirPersister{Dir: dir}
}

func (p *DirPersister) Persist(img image.Image, at time.Time) (string, error) {
	if img == nil {
		return "", fmt.Errorf("persist: nil image")
	}
	if err := p.ensureDir(); err != nil {
		return "", err
	}
	path := filepath.Join(p.Dir, FrameFileName(at))
	if err := imaging.Save(img, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("persist %s: %w", path, err)
	}
	return path, nil
}

func (p *DirPersister) ensureDir() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ensured {
		return nil
	}
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", p.Dir, err)
	}
	p.ensured = true
	return nil
}
