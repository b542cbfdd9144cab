package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/timnarr/assetkit/lib/config"
	"github.com/timnarr/assetkit/vite"
)

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "assets"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "assets", "app-1.js"), []byte("go()"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := config.Parse(strings.NewReader(`
vite:
  manifest_path: `+filepath.Join(dir, "manifest.json")+`
  build_dir: `+dir+`
  base: /build/
bundles:
  - name: app
    kind: script
    files: [src/app.js]
`), "test.yaml")
	if err != nil {
		t.Fatal(err)
	}

	return c, dir
}

func withFlags(t *testing.T, k, b string, l bool) {
	t.Helper()

	oldKind, oldBundle, oldLazy := *kind, *bundle, *lazy
	*kind, *bundle, *lazy = k, b, l
	t.Cleanup(func() {
		*kind, *bundle, *lazy = oldKind, oldBundle, oldLazy
	})
}

func TestRun(t *testing.T) {
	c, dir := testConfig(t)

	withFlags(t, "stylesheet", "", false)

	var buf bytes.Buffer
	if err := run(context.Background(), &buf, c, []string{"src/a.css"}); err != nil {
		t.Fatal(err)
	}

	if want := `<link rel="stylesheet" href="http://localhost:5173/src/a.css">` + "\n"; buf.String() != want {
		t.Errorf("wanted %q, got: %q", want, buf.String())
	}

	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(`{"src/app.js": {"file": "assets/app-1.js"}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	withFlags(t, "", "app", false)

	buf.Reset()
	if err := run(context.Background(), &buf, c, nil); err != nil {
		t.Fatal(err)
	}

	if want := "<script>go()</script>\n"; buf.String() != want {
		t.Errorf("wanted %q, got: %q", want, buf.String())
	}
}

func TestRunErrors(t *testing.T) {
	c, _ := testConfig(t)

	for _, tt := range []struct {
		name   string
		kind   string
		bundle string
		lazy   bool
		files  []string
		err    error
	}{
		{name: "nothing", err: ErrNothingToPrint},
		{name: "bad_kind", kind: "font", files: []string{"a.woff2"}, err: vite.ErrInvalidKind},
		{name: "lazy_two_files", lazy: true, files: []string{"a.css", "b.css"}, err: ErrNothingToPrint},
		{name: "unknown_bundle", bundle: "nope"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			withFlags(t, tt.kind, tt.bundle, tt.lazy)

			var buf bytes.Buffer
			err := run(context.Background(), &buf, c, tt.files)
			if err == nil {
				t.Fatal("wanted an error")
			}

			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("err: %v, wanted: %v", err, tt.err)
			}

			if buf.Len() != 0 {
				t.Errorf("printed output on error: %q", buf.String())
			}
		})
	}
}
