package assets

import (
	_ "embed"

	"github.com/soocke/carton-vision/domain/detection"
)

// ClassesTXT is the default class-name table used when no classes file is
// configured or the configured one cannot be read.
//
//go:embed classes.txt
var ClassesTXT []byte

// LoadClasses reads the class table at path, or the embedded table when path is empty.
func LoadClasses(path string) (*detection.ClassTable, error) {
	return detection.LoadClassTable(path, ClassesTXT)
}
