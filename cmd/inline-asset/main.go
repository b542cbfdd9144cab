// Command inline-asset prints the HTML fragment for a set of Vite assets, for
// build scripts and static site generators that can shell out.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/facebookgo/flagenv"

	"github.com/timnarr/assetkit/css"
	"github.com/timnarr/assetkit/internal"
	libassetkit "github.com/timnarr/assetkit/lib"
	"github.com/timnarr/assetkit/lib/config"
	"github.com/timnarr/assetkit/vite"
)

var (
	kind         = flag.String("kind", "", "asset kind, stylesheet or script")
	bundle       = flag.String("bundle", "", "name of a bundle from the config file to print instead of positional files")
	lazy         = flag.Bool("lazy", false, "print lazy loading tags for a single stylesheet")
	omitNoscript = flag.Bool("omit-noscript", false, "with --lazy, leave out the <noscript> fallback")
	configFname  = flag.String("config-fname", "", "full path to the assetkit config file (defaults to a sensible built-in config)")
	slogLevel    = flag.String("slog-level", "WARN", "logging level (see https://pkg.go.dev/log/slog#hdr-Levels)")
)

var ErrNothingToPrint = errors.New("inline-asset: pass files, --bundle or --lazy with one file")

func main() {
	flagenv.Parse()
	flag.Parse()

	internal.InitSlog(*slogLevel)

	cfg, err := libassetkit.LoadConfigOrDefault(*configFname)
	if err != nil {
		log.Fatalf("can't parse config file: %v", err)
	}

	if err := run(context.Background(), os.Stdout, cfg, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, w io.Writer, cfg *config.Config, files []string) error {
	resolver := vite.NewManifestResolver(cfg.ResolverOptions())

	if *lazy {
		if len(files) != 1 {
			return ErrNothingToPrint
		}

		href, err := resolver.URL(resolver.Detector().Mode(), files[0])
		if err != nil {
			return err
		}

		if err := css.Lazy(href, *omitNoscript).Render(ctx, w); err != nil {
			return err
		}
		_, err = fmt.Fprintln(w)
		return err
	}

	var k vite.Kind
	switch {
	case *bundle != "":
		b, ok := cfg.Bundle(*bundle)
		if !ok {
			return fmt.Errorf("inline-asset: no bundle named %q", *bundle)
		}
		k, files = b.ParsedKind(), b.Files
	case len(files) > 0:
		var err error
		k, err = vite.ParseKind(*kind)
		if err != nil {
			return err
		}
	default:
		return ErrNothingToPrint
	}

	inliner, err := vite.New(vite.Options{
		Resolver: resolver,
		Minify:   cfg.Vite.Minify,
	})
	if err != nil {
		return err
	}

	if err := inliner.Inline(ctx, w, k, files...); err != nil {
		return err
	}

	_, err = fmt.Fprintln(w)
	return err
}
