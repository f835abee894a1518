package detection

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// ClassTable maps detector class ids to human-readable names.
type ClassTable struct {
	names []string
}

// NewClassTable builds a table from names in id order.
func NewClassTable(names []string) *ClassTable {
	cp := make([]string, len(names))
	copy(cp, names)
	return &ClassTable{names: cp}
}

// ParseClassTable reads one class name per line. Blank lines and lines starting
// with '#' are skipped.
func ParseClassTable(r io.Reader) (*ClassTable, error) {
	var names []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read class names: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("class names: empty table")
	}
	return &ClassTable{names: names}, nil
}

// LoadClassTable reads the names file at path; when path is empty the fallback
// bytes are parsed instead.
func LoadClassTable(path string, fallback []byte) (*ClassTable, error) {
	if path == "" {
		return ParseClassTable(bytes.NewReader(fallback))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open class names: %w", err)
	}
	defer f.Close()
	return ParseClassTable(f)
}

// Name returns the class name for id, or "class_<id>" when unknown.
func (t *ClassTable) Name(id int) string {
	if t == nil || id < 0 || id >= len(t.names) {
		return fmt.Sprintf("class_%d", id)
	}
	return t.names[id]
}

// Len reports the number of known classes.
func (t *ClassTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}
