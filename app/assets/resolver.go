// Package assets maps logical asset paths from the topic dataset to files
// on disk. A missing file is reported, never treated as an error.
package assets

import (
	"os"
	"path/filepath"
	"strings"
)

type Resolver struct {
	imagesDir string
}

func NewResolver(assetsDir string) *Resolver {
	return &Resolver{imagesDir: filepath.Join(assetsDir, "images")}
}

// Resolve maps a dataset src like "/images/bp-diagram.svg" to a local file.
// The returned path is always populated so callers can report where the
// file was expected; ok is false when it does not exist.
func (r *Resolver) Resolve(src string) (string, bool) {
	name := strings.TrimPrefix(src, "/images/")
	name = strings.TrimLeft(name, "/")
	// Strip any directory components to keep lookups inside imagesDir.
	name = filepath.Base(name)

	path := filepath.Join(r.imagesDir, name)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return path, false
	}

	return path, true
}
