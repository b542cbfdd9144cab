package vite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/timnarr/assetkit/web"
)

var (
	fragmentsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetkit_fragments_emitted",
		Help: "The number of asset fragments built, by asset kind and build mode",
	}, []string{"kind", "mode"})

	bytesInlined = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assetkit_assets_inlined_bytes",
		Help: "The total size of asset contents inlined into production fragments",
	}, []string{"kind"})
)

var (
	ErrNoFiles    = errors.New("vite: no asset files given")
	ErrNoResolver = errors.New("vite: Options.Resolver must be set")
	ErrNoDetector = errors.New("vite: Options.Detector must be set unless Resolver is a *ManifestResolver")
)

type Options struct {
	Detector *Detector
	Resolver Resolver

	// ReadFile reads resolved production assets. Defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)

	// Minify runs inlined production contents through a CSS or JS minifier.
	Minify bool
}

// Inliner emits Vite assets as separate tags pointing at the dev server in
// Development and as a single inline <style> or <script> in Production.
type Inliner struct {
	detector *Detector
	resolver Resolver
	readFile func(name string) ([]byte, error)
	minifier *minify.M
}

func New(opts Options) (*Inliner, error) {
	if opts.Resolver == nil {
		return nil, ErrNoResolver
	}

	if opts.Detector == nil {
		mr, ok := opts.Resolver.(*ManifestResolver)
		if !ok {
			return nil, ErrNoDetector
		}
		opts.Detector = mr.Detector()
	}

	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}

	result := &Inliner{
		detector: opts.Detector,
		resolver: opts.Resolver,
		readFile: opts.ReadFile,
	}

	if opts.Minify {
		m := minify.New()
		m.AddFunc("text/css", css.Minify)
		m.AddFunc("application/javascript", js.Minify)
		result.minifier = m
	}

	return result, nil
}

// Mode reports the current build mode.
func (i *Inliner) Mode() Mode {
	return i.detector.Mode()
}

// Build resolves (and in Production, reads) files in order and returns the
// fragment for them along with the mode it was built in. Nothing is rendered
// unless every file succeeded.
//
// Passing a single file is the same as passing a one element slice.
func (i *Inliner) Build(kind Kind, files ...string) (templ.Component, Mode, error) {
	if err := kind.Valid(); err != nil {
		return nil, Development, err
	}

	if len(files) == 0 {
		return nil, Development, ErrNoFiles
	}

	mode := i.detector.Mode()
	slog.Debug("building asset fragment", "kind", kind.String(), "mode", mode.String(), "files", files)

	var (
		result templ.Component
		err    error
	)

	switch mode {
	case Development:
		result, err = i.buildLinks(mode, kind, files)
	default:
		result, err = i.buildInline(mode, kind, files)
	}
	if err != nil {
		return nil, mode, err
	}

	fragmentsEmitted.WithLabelValues(kind.String(), mode.String()).Inc()

	return result, mode, nil
}

// Inline writes the fragment for files to w.
func (i *Inliner) Inline(ctx context.Context, w io.Writer, kind Kind, files ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, _, err := i.Build(kind, files...)
	if err != nil {
		return err
	}

	return c.Render(ctx, w)
}

// Component defers Build to render time, so it can be dropped into a templ
// template. Errors surface from Render.
func (i *Inliner) Component(kind Kind, files ...string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return i.Inline(ctx, w, kind, files...)
	})
}

func (i *Inliner) buildLinks(mode Mode, kind Kind, files []string) (templ.Component, error) {
	tags := make([]templ.Component, 0, len(files))

	for _, file := range files {
		u, err := i.resolver.Resolve(mode, file)
		if err != nil {
			return nil, fmt.Errorf("can't resolve %s: %w", file, err)
		}

		switch kind {
		case Stylesheet:
			tags = append(tags, web.StylesheetLink(u))
		case Script:
			tags = append(tags, web.ModuleScript(u))
		}
	}

	return templ.Join(tags...), nil
}

func (i *Inliner) buildInline(mode Mode, kind Kind, files []string) (templ.Component, error) {
	var sb strings.Builder

	for _, file := range files {
		fname, err := i.resolver.Resolve(mode, file)
		if err != nil {
			return nil, fmt.Errorf("can't resolve %s: %w", file, err)
		}

		data, err := i.readFile(fname)
		if err != nil {
			return nil, fmt.Errorf("can't read %s: %w", file, err)
		}

		sb.Write(data)
	}

	content := sb.String()

	if i.minifier != nil {
		minified, err := i.minifier.String(mediaType(kind), content)
		if err != nil {
			return nil, fmt.Errorf("can't minify %s: %w", kind, err)
		}
		content = minified
	}

	bytesInlined.WithLabelValues(kind.String()).Add(float64(len(content)))

	if kind == Script {
		return web.InlineScript(content), nil
	}

	return web.InlineStyle(content), nil
}

func mediaType(kind Kind) string {
	if kind == Script {
		return "application/javascript"
	}
	return "text/css"
}
