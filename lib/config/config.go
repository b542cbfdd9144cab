package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"gopkg.in/yaml.v3"

	"github.com/timnarr/assetkit"
	"github.com/timnarr/assetkit/vite"
)

var (
	ErrBundleMustHaveName  = errors.New("config.Bundle: must set name")
	ErrBundleMustHaveFiles = errors.New("config.Bundle: must list at least one (1) file")
	ErrBundleEmptyFile     = errors.New("config.Bundle: file names must not be empty")
	ErrUnknownKind         = errors.New("config.Bundle: unknown kind")
	ErrDuplicateBundle     = errors.New("config: bundle names must be unique")
	ErrInvalidDevServer    = errors.New("config.Vite: dev_server must be an absolute http(s) URL")
)

type Vite struct {
	ManifestPath string `yaml:"manifest_path"`
	BuildDir     string `yaml:"build_dir"`
	DevServer    string `yaml:"dev_server"`
	Base         string `yaml:"base"`
	Minify       bool   `yaml:"minify"`
}

func (v Vite) Valid() error {
	if v.DevServer == "" {
		return nil
	}

	u, err := url.Parse(v.DevServer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDevServer, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w, got: %q", ErrInvalidDevServer, v.DevServer)
	}

	return nil
}

// Bundle is a named, ordered list of assets emitted together.
type Bundle struct {
	Name  string   `yaml:"name"`
	Kind  string   `yaml:"kind"`
	Files []string `yaml:"files"`
}

func (b Bundle) Valid() error {
	var errs []error

	if b.Name == "" {
		errs = append(errs, ErrBundleMustHaveName)
	}

	if _, err := vite.ParseKind(b.Kind); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownKind, b.Kind))
	}

	if len(b.Files) == 0 {
		errs = append(errs, ErrBundleMustHaveFiles)
	}

	for _, f := range b.Files {
		if f == "" {
			errs = append(errs, ErrBundleEmptyFile)
			break
		}
	}

	if len(errs) != 0 {
		return fmt.Errorf("config: bundle entry for %q is not valid:\n%w", b.Name, errors.Join(errs...))
	}

	return nil
}

// ParsedKind returns the bundle's kind. Only meaningful after Valid.
func (b Bundle) ParsedKind() vite.Kind {
	k, _ := vite.ParseKind(b.Kind)
	return k
}

type Config struct {
	Vite    Vite     `yaml:"vite"`
	Bundles []Bundle `yaml:"bundles"`
}

func (c Config) Valid() error {
	var errs []error

	if err := c.Vite.Valid(); err != nil {
		errs = append(errs, err)
	}

	seen := map[string]bool{}
	for _, b := range c.Bundles {
		if err := b.Valid(); err != nil {
			errs = append(errs, err)
		}

		if b.Name != "" && seen[b.Name] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateBundle, b.Name))
		}
		seen[b.Name] = true
	}

	if len(errs) != 0 {
		return fmt.Errorf("config is not valid:\n%w", errors.Join(errs...))
	}

	return nil
}

// Bundle looks up a bundle by name.
func (c Config) Bundle(name string) (Bundle, bool) {
	for _, b := range c.Bundles {
		if b.Name == name {
			return b, true
		}
	}

	return Bundle{}, false
}

// ResolverOptions maps the vite section onto the resolver.
func (c Config) ResolverOptions() vite.ResolverOptions {
	return vite.ResolverOptions{
		ManifestPath: c.Vite.ManifestPath,
		BuildDir:     c.Vite.BuildDir,
		DevServer:    c.Vite.DevServer,
		Base:         c.Vite.Base,
	}
}

// Parse decodes and validates a YAML config. Unset vite settings get the
// assetkit defaults. fname is only used in errors.
func Parse(fin io.Reader, fname string) (*Config, error) {
	var c Config

	dec := yaml.NewDecoder(fin)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("can't parse config YAML %s: %w", fname, err)
	}

	if err := c.Valid(); err != nil {
		return nil, fmt.Errorf("errors validating config YAML %s: %w", fname, err)
	}

	if c.Vite.ManifestPath == "" {
		c.Vite.ManifestPath = assetkit.DefaultManifestPath
	}

	if c.Vite.BuildDir == "" {
		c.Vite.BuildDir = assetkit.DefaultBuildDir
	}

	if c.Vite.DevServer == "" {
		c.Vite.DevServer = assetkit.DefaultDevServer
	}

	if c.Vite.Base == "" {
		c.Vite.Base = assetkit.DefaultBase
	}

	return &c, nil
}
