package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Recorder writes diagnostic artifacts under a single output directory.
type Recorder struct {
	Dir string

	// now is injectable for tests.
	now func() time.Time
}

// NewRecorder returns a recorder writing into dir. The directory is
// created on first use, not here.
func NewRecorder(dir string) *Recorder {
	return &Recorder{Dir: dir, now: time.Now}
}

// SaveScreenshot writes a timestamped PNG and returns its path.
func (r *Recorder) SaveScreenshot(name string, png []byte) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.png", name, r.now().Format("20060102_150405"))
	path := filepath.Join(r.Dir, filename)
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("writing screenshot: %w", err)
	}
	return path, nil
}
