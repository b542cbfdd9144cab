package vite

import (
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

var (
	ErrAssetNotInManifest = errors.New("vite: asset is not in the manifest")
	ErrEmptyChunkFile     = errors.New("vite: manifest chunk has no file")
)

// Chunk is one entry of a Vite manifest.json.
type Chunk struct {
	File           string   `json:"file"`
	Name           string   `json:"name,omitempty"`
	Src            string   `json:"src,omitempty"`
	IsEntry        bool     `json:"isEntry,omitempty"`
	IsDynamicEntry bool     `json:"isDynamicEntry,omitempty"`
	CSS            []string `json:"css,omitempty"`
	Assets         []string `json:"assets,omitempty"`
	Imports        []string `json:"imports,omitempty"`
	DynamicImports []string `json:"dynamicImports,omitempty"`
}

// Manifest maps source paths (as written in templates) to built chunks.
type Manifest map[string]Chunk

// ParseManifest decodes a Vite manifest. fname is only used in errors.
func ParseManifest(fin io.Reader, fname string) (Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(fin).Decode(&m); err != nil {
		return nil, fmt.Errorf("can't parse vite manifest %s: %w", fname, err)
	}

	for src, chunk := range m {
		if chunk.File == "" {
			return nil, fmt.Errorf("%w: %q in %s", ErrEmptyChunkFile, src, fname)
		}
	}

	return m, nil
}

// Lookup finds the chunk for a logical path. A leading slash is ignored.
func (m Manifest) Lookup(logicalPath string) (Chunk, error) {
	if chunk, ok := m[logicalPath]; ok {
		return chunk, nil
	}

	if len(logicalPath) > 0 && logicalPath[0] == '/' {
		if chunk, ok := m[logicalPath[1:]]; ok {
			return chunk, nil
		}
	}

	return Chunk{}, fmt.Errorf("%w: %q", ErrAssetNotInManifest, logicalPath)
}
