package lib

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/timnarr/assetkit"
	"github.com/timnarr/assetkit/css"
	"github.com/timnarr/assetkit/data"
	"github.com/timnarr/assetkit/internal"
	"github.com/timnarr/assetkit/lib/config"
	"github.com/timnarr/assetkit/vite"
	"github.com/timnarr/assetkit/web"
)

type Options struct {
	Config *config.Config
}

// LoadConfigOrDefault parses fname, or the built-in config if fname is empty.
func LoadConfigOrDefault(fname string) (*config.Config, error) {
	var fin io.ReadCloser
	var err error

	if fname != "" {
		fin, err = os.Open(fname)
		if err != nil {
			return nil, fmt.Errorf("can't parse config file %s: %w", fname, err)
		}
	} else {
		fname = "(data)/assetkit.yaml"
		fin, err = data.Config.Open("assetkit.yaml")
		if err != nil {
			return nil, fmt.Errorf("[unexpected] can't parse builtin config file %s: %w", fname, err)
		}
	}

	defer func(fin io.ReadCloser) {
		err := fin.Close()
		if err != nil {
			slog.Error("failed to close config file", "file", fname, "err", err)
		}
	}(fin)

	return config.Parse(fin, fname)
}

// Server emits asset fragments over HTTP for sites that are not rendered by Go.
type Server struct {
	mux      *http.ServeMux
	resolver *vite.ManifestResolver
	detector *vite.Detector
	inliner  *vite.Inliner
	opts     Options
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		slog.Debug("opts.Config not set, using the built-in config")
		c, err := LoadConfigOrDefault("")
		if err != nil {
			return nil, err
		}
		opts.Config = c
	}

	resolver := vite.NewManifestResolver(opts.Config.ResolverOptions())
	detector := resolver.Detector()

	inliner, err := vite.New(vite.Options{
		Detector: detector,
		Resolver: resolver,
		Minify:   opts.Config.Vite.Minify,
	})
	if err != nil {
		return nil, fmt.Errorf("lib: can't construct inliner: %w", err)
	}

	result := &Server{
		resolver: resolver,
		detector: detector,
		inliner:  inliner,
		opts:     opts,
	}

	mux := http.NewServeMux()

	build := http.StripPrefix(assetkit.BuildPath, http.FileServer(http.Dir(resolver.BuildDir())))
	mux.Handle("GET "+assetkit.BuildPath, internal.UnchangingCache(result.isProduction, internal.NoBrowsing(build)))

	mux.HandleFunc("GET "+assetkit.APIPrefix+"fragment", result.Fragment)
	mux.HandleFunc("GET "+assetkit.APIPrefix+"bundle/{name}", result.Bundle)
	mux.HandleFunc("GET "+assetkit.APIPrefix+"lazy-css", result.LazyCSS)
	mux.Handle("GET "+assetkit.APIPrefix+"mode", internal.NoStoreCache(http.HandlerFunc(result.Mode)))

	result.mux = mux

	return result, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) isProduction() bool {
	return s.detector.Mode() == vite.Production
}

// Fragment emits the fragment for ?kind=...&file=...&file=...
func (s *Server) Fragment(w http.ResponseWriter, r *http.Request) {
	lg := requestLogger(r)

	kind, err := vite.ParseKind(r.FormValue("kind"))
	if err != nil {
		lg.Debug("bad kind", "err", err)
		s.renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	s.emit(w, r, lg, kind, r.URL.Query()["file"])
}

// Bundle emits the fragment for a bundle from the config file.
func (s *Server) Bundle(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	lg := requestLogger(r).With("bundle", name)

	b, ok := s.opts.Config.Bundle(name)
	if !ok {
		lg.Debug("no such bundle")
		s.renderError(w, r, http.StatusNotFound, fmt.Sprintf("no bundle named %q", name))
		return
	}

	s.emit(w, r, lg, b.ParsedKind(), b.Files)
}

// LazyCSS emits the lazy loading tags for ?file=...[&omit-noscript=true].
func (s *Server) LazyCSS(w http.ResponseWriter, r *http.Request) {
	lg := requestLogger(r)

	file := r.FormValue("file")
	if file == "" {
		s.renderError(w, r, http.StatusBadRequest, vite.ErrNoFiles.Error())
		return
	}

	omitNoscript, _ := strconv.ParseBool(r.FormValue("omit-noscript"))

	mode := s.detector.Mode()
	href, err := s.resolver.URL(mode, file)
	if err != nil {
		lg.Error("can't resolve stylesheet", "file", file, "err", err)
		s.renderError(w, r, statusFor(err), err.Error())
		return
	}

	s.writeFragment(w, r, lg, mode, css.Lazy(href, omitNoscript))
}

// Mode reports "development" or "production".
func (s *Server) Mode(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.detector.Mode())
}

// CleanupDecayMap drops expired cached manifests.
func (s *Server) CleanupDecayMap() {
	s.resolver.Cleanup()
}

func (s *Server) emit(w http.ResponseWriter, r *http.Request, lg *slog.Logger, kind vite.Kind, files []string) {
	c, mode, err := s.inliner.Build(kind, files...)
	if err != nil {
		lg.Error("can't build fragment", "kind", kind.String(), "files", files, "err", err)
		s.renderError(w, r, statusFor(err), err.Error())
		return
	}

	s.writeFragment(w, r, lg, mode, c)
}

func (s *Server) writeFragment(w http.ResponseWriter, r *http.Request, lg *slog.Logger, mode vite.Mode, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		lg.Error("render failed", "err", err)
		s.renderError(w, r, http.StatusInternalServerError, "render failed")
		return
	}

	etag := internal.ETag(buf.Bytes())
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)

	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Assetkit-Mode", mode.String())
	if _, err := w.Write(buf.Bytes()); err != nil {
		lg.Debug("failed to write fragment", "err", err)
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	templ.Handler(web.Base("Oh noes!", web.ErrorPage(msg)), templ.WithStatus(status)).ServeHTTP(w, r)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, vite.ErrInvalidKind), errors.Is(err, vite.ErrNoFiles):
		return http.StatusBadRequest
	case errors.Is(err, vite.ErrAssetNotInManifest):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func requestLogger(r *http.Request) *slog.Logger {
	return slog.With(
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"user_agent", r.UserAgent(),
		"x-real-ip", r.Header.Get("X-Real-Ip"),
	)
}
