package vite

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testManifest = `{
  "src/styles/main.css": {
    "file": "assets/main-4f1c2d.css",
    "src": "src/styles/main.css",
    "isEntry": true
  },
  "src/js/app.js": {
    "file": "assets/app-9a8b7c.js",
    "name": "app",
    "src": "src/js/app.js",
    "isEntry": true,
    "css": ["assets/main-4f1c2d.css"]
  }
}`

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()

	fname := filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(fname, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return fname
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest(strings.NewReader(testManifest), "manifest.json")
	if err != nil {
		t.Fatal(err)
	}

	chunk, err := m.Lookup("/src/js/app.js")
	if err != nil {
		t.Fatal(err)
	}

	if chunk.File != "assets/app-9a8b7c.js" || !chunk.IsEntry || len(chunk.CSS) != 1 {
		t.Errorf("unexpected chunk: %+v", chunk)
	}

	if _, err := m.Lookup("src/missing.css"); !errors.Is(err, ErrAssetNotInManifest) {
		t.Errorf("wanted ErrAssetNotInManifest, got: %v", err)
	}
}

func TestParseManifestBad(t *testing.T) {
	for _, tt := range []struct {
		name    string
		content string
		err     error
	}{
		{name: "not_json", content: "<html>"},
		{name: "wrong_shape", content: `["a", "b"]`},
		{name: "empty_file", content: `{"a.css": {"src": "a.css"}}`, err: ErrEmptyChunkFile},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(tt.content), tt.name)
			if err == nil {
				t.Fatal("wanted an error")
			}

			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("err: %v, wanted: %v", err, tt.err)
			}
		})
	}
}

func TestManifestResolverDevelopment(t *testing.T) {
	for _, tt := range []struct {
		name      string
		devServer string
		path      string
		want      string
	}{
		{name: "plain", devServer: "http://localhost:5173", path: "src/a.css", want: "http://localhost:5173/src/a.css"},
		{name: "trailing_slash", devServer: "http://localhost:5173/", path: "src/a.css", want: "http://localhost:5173/src/a.css"},
		{name: "leading_slash", devServer: "http://localhost:5173", path: "/src/a.css", want: "http://localhost:5173/src/a.css"},
		{name: "default", path: "src/a.js", want: "http://localhost:5173/src/a.js"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := NewManifestResolver(ResolverOptions{
				ManifestPath: filepath.Join(t.TempDir(), "manifest.json"),
				DevServer:    tt.devServer,
			})

			got, err := r.Resolve(Development, tt.path)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("wanted %q, got: %q", tt.want, got)
			}

			u, err := r.URL(Development, tt.path)
			if err != nil {
				t.Fatal(err)
			}

			if u != got {
				t.Errorf("URL and Resolve disagree in development: %q != %q", u, got)
			}
		})
	}
}

func TestManifestResolverProduction(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, testManifest)

	r := NewManifestResolver(ResolverOptions{
		ManifestPath: manifest,
		Base:         "/build",
	})

	got, err := r.Resolve(Production, "src/styles/main.css")
	if err != nil {
		t.Fatal(err)
	}

	if want := filepath.Join(dir, "assets", "main-4f1c2d.css"); got != want {
		t.Errorf("wanted %q, got: %q", want, got)
	}

	u, err := r.URL(Production, "src/js/app.js")
	if err != nil {
		t.Fatal(err)
	}

	if want := "/build/assets/app-9a8b7c.js"; u != want {
		t.Errorf("wanted %q, got: %q", want, u)
	}

	if _, err := r.Resolve(Production, "src/nope.css"); !errors.Is(err, ErrAssetNotInManifest) {
		t.Errorf("wanted ErrAssetNotInManifest, got: %v", err)
	}

	if r.Detector().IsDevelopment() {
		t.Error("detector built from the resolver does not see the manifest")
	}
}

func TestManifestResolverNoManifest(t *testing.T) {
	r := NewManifestResolver(ResolverOptions{
		ManifestPath: filepath.Join(t.TempDir(), "manifest.json"),
	})

	if _, err := r.Resolve(Production, "src/a.css"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("wanted os.ErrNotExist, got: %v", err)
	}
}

func TestManifestResolverReloads(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, `{"a.css": {"file": "assets/a-1.css"}}`)

	r := NewManifestResolver(ResolverOptions{ManifestPath: manifest})

	first, err := r.Resolve(Production, "a.css")
	if err != nil {
		t.Fatal(err)
	}

	writeManifest(t, dir, `{"a.css": {"file": "assets/a-22222.css"}}`)

	second, err := r.Resolve(Production, "a.css")
	if err != nil {
		t.Fatal(err)
	}

	if first == second {
		t.Fatalf("resolver kept a stale manifest: %q", second)
	}

	if want := filepath.Join(dir, "assets", "a-22222.css"); second != want {
		t.Errorf("wanted %q, got: %q", want, second)
	}
}
