package lib

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var modeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "assetkit_mode_transitions",
	Help: "The number of times the build mode changed, by the mode changed to",
}, []string{"mode"})

// WatchManifest logs whenever the build mode flips until ctx is cancelled.
// It only reports: requests still detect the mode themselves.
func (s *Server) WatchManifest(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create manifest watcher: %w", err)
	}
	defer watcher.Close()

	chain := watchChain(s.detector.ManifestPath, s.resolver.BuildDir())
	anchor := chain[len(chain)-1]

	if err := watcher.Add(anchor); err != nil {
		return fmt.Errorf("failed to watch %s: %w", anchor, err)
	}
	addExisting(watcher, chain[:len(chain)-1])

	debounce := time.NewTimer(0)
	<-debounce.C

	last := s.detector.Mode()
	slog.Info("watching vite manifest", "path", s.detector.ManifestPath, "mode", last.String())

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) && slices.Contains(chain, filepath.Clean(event.Name)) {
				addExisting(watcher, chain[:len(chain)-1])
			}

			debounce.Reset(100 * time.Millisecond)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("manifest watcher error", "err", err)

		case <-debounce.C:
			if mode := s.detector.Mode(); mode != last {
				slog.Info("build mode changed", "from", last.String(), "to", mode.String())
				modeTransitions.WithLabelValues(mode.String()).Inc()
				last = mode
			}
		}
	}
}

// watchChain lists the directories from the manifest's own up to the parent
// of the build directory, nearest first. vite build may delete and recreate
// the whole build directory, so every level down to the manifest has to be
// picked back up when it reappears. The last entry must exist.
func watchChain(manifestPath, buildDir string) []string {
	dir := filepath.Clean(filepath.Dir(manifestPath))
	buildDir = filepath.Clean(buildDir)

	anchor := filepath.Dir(dir)
	if rel, err := filepath.Rel(buildDir, dir); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		anchor = filepath.Dir(buildDir)
	}

	chain := []string{dir}
	for dir != anchor {
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
		chain = append(chain, dir)
	}

	return chain
}

func addExisting(watcher *fsnotify.Watcher, dirs []string) {
	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}

		if err := watcher.Add(dir); err != nil {
			slog.Error("failed to watch build directory", "dir", dir, "err", err)
		}
	}
}
