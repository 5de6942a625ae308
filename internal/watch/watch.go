// Package watch rebuilds a project whenever files under its root change.
//
// Filesystem events are debounced; rebuilds run one at a time and a change
// that arrives during a rebuild schedules exactly one more.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/distbuilder/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	".git":        true,
	".hg":         true,
	".svn":        true,
	"__pycache__": true,
}

// BuildFunc performs one complete build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Root is the project directory to watch.
	Root string
	// OutputDir is excluded from watching so artifacts do not retrigger builds.
	OutputDir string
	Debounce  time.Duration
	Logger    *slog.Logger
}

// Watcher runs build once and again after every settled burst of changes.
type Watcher struct {
	root      string
	outputDir string
	debounce  time.Duration
	logger    *slog.Logger
	build     BuildFunc
}

// New creates a watcher. Relative paths in opts are made absolute.
func New(opts Options, build BuildFunc) (*Watcher, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	var out string
	if opts.OutputDir != "" {
		if out, err = filepath.Abs(opts.OutputDir); err != nil {
			return nil, fmt.Errorf("resolve output directory: %w", err)
		}
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{root: root, outputDir: out, debounce: opts.Debounce, logger: opts.Logger, build: build}, nil
}

// Run builds once, then watches until ctx is done. Build failures are logged
// and do not stop watching.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()
	w.addDirsRecursive(fw, w.root)

	rebuildReq, trigger, stop := newDebouncer(w.debounce)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.runBuilds(ctx, rebuildReq)
	}()
	rebuildReq <- struct{}{}

	w.logger.Info("Watching for changes", logfields.Path(w.root))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopped watching")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev, trigger)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// runBuilds serves rebuild requests until ctx is done. The request channel
// holds at most one pending request, so bursts during a build coalesce.
func (w *Watcher) runBuilds(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			start := time.Now()
			if err := w.build(ctx); err != nil {
				w.logger.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			w.logger.Info("Rebuild complete",
				logfields.DurationMS(float64(time.Since(start).Microseconds())/1000))
		}
	}
}

// newDebouncer returns the request channel, a trigger that schedules a
// request once events have been quiet for d, and a stop function.
func newDebouncer(d time.Duration) (chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	rebuildReq := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(d, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return rebuildReq, trigger, stop
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if w.ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != w.root && (skippedDirs[d.Name()] || w.inOutput(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports whether an event on path must not trigger a rebuild.
func (w *Watcher) ignored(path string) bool {
	return w.inOutput(path) || shouldIgnoreEvent(path)
}

func (w *Watcher) inOutput(path string) bool {
	if w.outputDir == "" {
		return false
	}
	return path == w.outputDir || strings.HasPrefix(path, w.outputDir+string(filepath.Separator))
}

// shouldIgnoreEvent returns true for hidden, editor temp and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".pyc") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
