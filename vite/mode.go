package vite

import (
	"io/fs"
	"os"
)

// Mode is the build mode assets are delivered in.
type Mode int

const (
	Development Mode = iota
	Production
)

func (m Mode) String() string {
	if m == Production {
		return "production"
	}
	return "development"
}

// Detector derives the build mode from the presence of the Vite manifest.
//
// The mode is never cached: every call checks the filesystem, so a fresh
// `vite build` or a deleted build directory takes effect on the next render.
type Detector struct {
	// ManifestPath is the path to manifest.json. An empty path never exists.
	ManifestPath string

	stat func(name string) (fs.FileInfo, error)
}

// NewDetector creates a Detector that checks manifestPath on the local filesystem.
func NewDetector(manifestPath string) *Detector {
	return &Detector{
		ManifestPath: manifestPath,
		stat:         os.Stat,
	}
}

// Mode reports Production if the manifest exists and Development otherwise.
// A missing or unreadable manifest is not an error.
func (d *Detector) Mode() Mode {
	if d == nil || d.ManifestPath == "" {
		return Development
	}

	stat := d.stat
	if stat == nil {
		stat = os.Stat
	}

	if _, err := stat(d.ManifestPath); err != nil {
		return Development
	}

	return Production
}

// IsDevelopment reports whether the manifest is absent.
func (d *Detector) IsDevelopment() bool {
	return d.Mode() == Development
}
