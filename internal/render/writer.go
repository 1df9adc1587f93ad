package render

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/polarsky/internal/fsutil"
	"github.com/banshee-data/polarsky/internal/monitoring"
	"github.com/banshee-data/polarsky/internal/security"
)

// Writer stores rendered artifacts under Dir.
type Writer struct {
	FS  fsutil.FileSystem
	Dir string
}

// NewWriter returns a Writer on the OS filesystem.
func NewWriter(dir string) *Writer {
	return &Writer{FS: fsutil.OSFileSystem{}, Dir: dir}
}

// Write renders into a buffer with fn and stores the result as name, which
// must be a plain file name. A failed render leaves no file behind.
func (w *Writer) Write(name string, fn func(*bytes.Buffer) error) (string, error) {
	if err := security.ValidateArtifactName(name); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	if err := w.FS.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", w.Dir, err)
	}
	path := filepath.Join(w.Dir, name)
	if _, onDisk := w.FS.(fsutil.OSFileSystem); onDisk {
		if err := security.ValidatePathWithinDirectory(path, w.Dir); err != nil {
			return "", err
		}
	}
	if err := w.FS.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	monitoring.Debugf("wrote %s (%d bytes)", path, buf.Len())
	return path, nil
}
