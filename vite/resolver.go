package vite

import (
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/timnarr/assetkit"
	"github.com/timnarr/assetkit/decaymap"
)

// Resolver turns a logical asset path into something the inliner can use:
// a URL the browser can fetch in Development, a file it can read in Production.
type Resolver interface {
	Resolve(mode Mode, logicalPath string) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(mode Mode, logicalPath string) (string, error)

func (f ResolverFunc) Resolve(mode Mode, logicalPath string) (string, error) {
	return f(mode, logicalPath)
}

type ResolverOptions struct {
	ManifestPath string
	BuildDir     string
	DevServer    string
	Base         string

	// ManifestTimeToLive bounds how long a parsed manifest is kept around.
	// Rewriting the manifest invalidates it immediately regardless.
	ManifestTimeToLive time.Duration
}

// ManifestResolver resolves assets against the Vite dev server or the
// manifest of a production build.
type ManifestResolver struct {
	opts     ResolverOptions
	cache    *decaymap.Impl[string, Manifest]
	stat     func(name string) (fs.FileInfo, error)
	readFile func(name string) ([]byte, error)
}

func NewManifestResolver(opts ResolverOptions) *ManifestResolver {
	if opts.ManifestPath == "" {
		opts.ManifestPath = assetkit.DefaultManifestPath
	}

	if opts.BuildDir == "" {
		opts.BuildDir = filepath.Dir(opts.ManifestPath)
	}

	if opts.DevServer == "" {
		opts.DevServer = assetkit.DefaultDevServer
	}

	if opts.Base == "" {
		opts.Base = assetkit.DefaultBase
	}

	if opts.ManifestTimeToLive == 0 {
		opts.ManifestTimeToLive = 10 * time.Minute
	}

	return &ManifestResolver{
		opts:     opts,
		cache:    decaymap.New[string, Manifest](),
		stat:     os.Stat,
		readFile: os.ReadFile,
	}
}

// Detector returns a Detector watching the same manifest this resolver reads.
func (r *ManifestResolver) Detector() *Detector {
	return NewDetector(r.opts.ManifestPath)
}

// BuildDir is the directory production files are read from, after defaults.
func (r *ManifestResolver) BuildDir() string {
	return r.opts.BuildDir
}

// Resolve returns the dev server URL of logicalPath in Development and the
// path of the built file on disk in Production.
func (r *ManifestResolver) Resolve(mode Mode, logicalPath string) (string, error) {
	if mode == Development {
		return r.devURL(logicalPath), nil
	}

	chunk, err := r.lookup(logicalPath)
	if err != nil {
		return "", err
	}

	return filepath.Join(r.opts.BuildDir, filepath.FromSlash(chunk.File)), nil
}

// URL returns the address a browser should load logicalPath from. Unlike
// Resolve, production results point at Base rather than at the disk.
func (r *ManifestResolver) URL(mode Mode, logicalPath string) (string, error) {
	if mode == Development {
		return r.devURL(logicalPath), nil
	}

	chunk, err := r.lookup(logicalPath)
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(r.opts.Base, "/") + "/" + strings.TrimPrefix(chunk.File, "/"), nil
}

// Manifest returns the parsed manifest, re-reading it whenever the file changes.
func (r *ManifestResolver) Manifest() (Manifest, error) {
	st, err := r.stat(r.opts.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("can't stat vite manifest: %w", err)
	}

	key := fmt.Sprintf("%s:%d:%d", r.opts.ManifestPath, st.Size(), st.ModTime().UnixNano())
	if m, ok := r.cache.Get(key); ok {
		return m, nil
	}

	data, err := r.readFile(r.opts.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("can't read vite manifest: %w", err)
	}

	m, err := ParseManifest(bytes.NewReader(data), r.opts.ManifestPath)
	if err != nil {
		return nil, err
	}

	slog.Debug("parsed vite manifest", "path", r.opts.ManifestPath, "entries", len(m))
	r.cache.Set(key, m, r.opts.ManifestTimeToLive)

	return m, nil
}

// Cleanup drops expired manifests.
func (r *ManifestResolver) Cleanup() {
	r.cache.Cleanup()
}

func (r *ManifestResolver) lookup(logicalPath string) (Chunk, error) {
	m, err := r.Manifest()
	if err != nil {
		return Chunk{}, err
	}

	return m.Lookup(logicalPath)
}

func (r *ManifestResolver) devURL(logicalPath string) string {
	return strings.TrimSuffix(r.opts.DevServer, "/") + "/" + strings.TrimPrefix(logicalPath, "/")
}
