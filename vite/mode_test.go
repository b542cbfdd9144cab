package vite

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestDetector(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.json")

	d := NewDetector(manifest)

	if !d.IsDevelopment() {
		t.Fatal("wanted development mode without a manifest")
	}

	if d.Mode() != d.Mode() {
		t.Fatal("detection is not idempotent")
	}

	if err := os.WriteFile(manifest, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	if d.IsDevelopment() {
		t.Fatal("wanted production mode with a manifest")
	}

	if got := d.Mode(); got != Production {
		t.Errorf("wanted %s, got: %s", Production, got)
	}

	if err := os.Remove(manifest); err != nil {
		t.Fatal(err)
	}

	if !d.IsDevelopment() {
		t.Fatal("mode did not switch back after removing the manifest")
	}
}

func TestDetectorUnset(t *testing.T) {
	var calls int
	d := &Detector{
		stat: func(name string) (fs.FileInfo, error) {
			calls++
			return nil, nil
		},
	}

	if !d.IsDevelopment() {
		t.Error("an unset manifest path must mean development")
	}

	if calls != 0 {
		t.Errorf("stat was called %d times for an unset path", calls)
	}

	var nilDetector *Detector
	if nilDetector.Mode() != Development {
		t.Error("a nil detector must report development")
	}
}

func TestDetectorStatsEveryCall(t *testing.T) {
	var calls int
	d := &Detector{
		ManifestPath: "build/manifest.json",
		stat: func(name string) (fs.FileInfo, error) {
			calls++
			return nil, fs.ErrNotExist
		},
	}

	for range 3 {
		d.Mode()
	}

	if calls != 3 {
		t.Errorf("wanted 3 stat calls, got: %d", calls)
	}
}

func TestModeString(t *testing.T) {
	for _, tt := range []struct {
		mode Mode
		want string
	}{
		{Development, "development"},
		{Production, "production"},
	} {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("wanted %q, got: %q", tt.want, got)
		}
	}
}
