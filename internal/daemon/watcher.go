package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/mdpage/internal/foundation/errors"
	"git.home.luguber.info/inful/mdpage/internal/logfields"
	"git.home.luguber.info/inful/mdpage/internal/metrics"
)

// watcher wraps fsnotify over the source tree. Directories are watched
// recursively; new directories join the watch as they appear. Events
// under the output tree are ignored so builds cannot retrigger
// themselves when the output nests inside the source.
type watcher struct {
	fsw       *fsnotify.Watcher
	sourceDir string
	outputDir string
	rec       metrics.Recorder
}

func newWatcher(sourceDir, outputDir string, rec metrics.Recorder) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.DaemonError("failed to create filesystem watcher").
			WithCause(err).
			Build()
	}

	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		absOutput = outputDir
	}

	w := &watcher{
		fsw:       fsw,
		sourceDir: sourceDir,
		outputDir: absOutput,
		rec:       rec,
	}
	if err := w.addDirsRecursive(sourceDir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// run dispatches filesystem events into the debounced trigger until
// the context ends or the watcher closes.
func (w *watcher) run(ctx context.Context, trigger func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev, trigger)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) close() {
	_ = w.fsw.Close()
}

// handleEvent filters one event and arms the rebuild trigger. Newly
// created directories are added to the watch before triggering, so
// files landing inside them right after are not missed.
func (w *watcher) handleEvent(ev fsnotify.Event, trigger func()) {
	if w.ignored(ev.Name) {
		return
	}

	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addDirsRecursive(ev.Name); err != nil {
				slog.Warn("Failed to watch new directory",
					logfields.Path(ev.Name),
					logfields.Error(err))
			}
		}
	}

	w.rec.IncWatcherEvent(eventKind(ev.Op))
	slog.Debug("File change detected",
		logfields.Path(ev.Name),
		slog.String("op", ev.Op.String()))
	trigger()
}

// addDirsRecursive adds root and every directory below it to the
// watch, skipping hidden directories and the output tree. Unreadable
// entries are skipped rather than failing the walk.
func (w *watcher) addDirsRecursive(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root {
			if strings.HasPrefix(d.Name(), ".") || w.underOutput(path) {
				return fs.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			slog.Warn("Failed to watch directory", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
	if err != nil {
		return ferrors.DaemonError("failed to walk source tree for watching").
			WithCause(err).
			WithContext("root", root).
			Build()
	}
	return nil
}

// ignored reports whether a path must not trigger rebuilds.
func (w *watcher) ignored(path string) bool {
	if w.underOutput(path) {
		return true
	}
	return ignoredBase(filepath.Base(path))
}

func (w *watcher) underOutput(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	if abs == w.outputDir {
		return true
	}
	return strings.HasPrefix(abs, w.outputDir+string(filepath.Separator))
}

// ignoredBase filters hidden files, editor temp and swap files, and
// OS metadata files.
func ignoredBase(base string) bool {
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return base == "Thumbs.db"
}

// eventKind maps an fsnotify op to the metrics label for the dominant
// operation.
func eventKind(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Chmod):
		return "chmod"
	default:
		return "other"
	}
}
