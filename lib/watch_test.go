package lib

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/timnarr/assetkit/lib/config"
)

func TestWatchChain(t *testing.T) {
	for _, tt := range []struct {
		name         string
		manifestPath string
		buildDir     string
		want         []string
	}{
		{
			name:         "flat",
			manifestPath: "/srv/site/build/manifest.json",
			buildDir:     "/srv/site/build",
			want:         []string{"/srv/site/build", "/srv/site"},
		},
		{
			name:         "nested",
			manifestPath: "/srv/site/build/.vite/manifest.json",
			buildDir:     "/srv/site/build",
			want:         []string{"/srv/site/build/.vite", "/srv/site/build", "/srv/site"},
		},
		{
			name:         "outside_build_dir",
			manifestPath: "/srv/site/meta/manifest.json",
			buildDir:     "/srv/site/build",
			want:         []string{"/srv/site/meta", "/srv/site"},
		},
		{
			name:         "sibling_with_common_prefix",
			manifestPath: "/srv/site/build-meta/manifest.json",
			buildDir:     "/srv/site/build",
			want:         []string{"/srv/site/build-meta", "/srv/site"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			want := make([]string, len(tt.want))
			for i, dir := range tt.want {
				want[i] = filepath.FromSlash(dir)
			}

			got := watchChain(filepath.FromSlash(tt.manifestPath), filepath.FromSlash(tt.buildDir))
			if !slices.Equal(got, want) {
				t.Errorf("wanted %v, got: %v", want, got)
			}
		})
	}
}

func TestWatchManifestSurvivesBuildDirRecreation(t *testing.T) {
	dir := t.TempDir()
	buildDir := filepath.Join(dir, "build")
	viteDir := filepath.Join(buildDir, ".vite")
	if err := os.MkdirAll(viteDir, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := config.Parse(strings.NewReader(`
vite:
  manifest_path: `+filepath.Join(viteDir, "manifest.json")+`
  build_dir: `+buildDir+`
`), "test.yaml")
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(Options{Config: c})
	if err != nil {
		t.Fatalf("can't construct lib.Server: %v", err)
	}

	before := testutil.ToFloat64(modeTransitions.WithLabelValues("production"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.WatchManifest(ctx)

	time.Sleep(100 * time.Millisecond)

	if err := os.RemoveAll(buildDir); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.MkdirAll(viteDir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(viteDir, "manifest.json"), []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for testutil.ToFloat64(modeTransitions.WithLabelValues("production")) == before {
		if time.Now().After(deadline) {
			t.Fatal("watcher lost the manifest after the build directory was recreated")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
