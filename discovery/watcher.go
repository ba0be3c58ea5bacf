package discovery

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher re-runs discovery whenever manifest files under a directory
// change. Events are debounced so editor write bursts trigger one rescan.
type Watcher struct {
	dir      string
	opts     Options
	onResult func(*Result, error)
	debounce time.Duration

	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher for a procedures directory. onResult is
// invoked with each fresh discovery snapshot, or with the discovery error
// when a rescan fails.
func NewWatcher(dir string, opts Options, onResult func(*Result, error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	opts = withDefaults(opts)
	return &Watcher{
		dir:      dir,
		opts:     opts,
		onResult: onResult,
		debounce: 100 * time.Millisecond,
		watcher:  fw,
		logger:   opts.Logger,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching and triggers an initial discovery run
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}
	if w.opts.Recursive {
		err := filepath.WalkDir(w.dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.IsDir() || p == w.dir {
				return err
			}
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return w.watcher.Add(p)
		})
		if err != nil {
			return fmt.Errorf("failed to watch subdirectories of %s: %w", w.dir, err)
		}
	}

	w.wg.Add(1)
	go w.loop()

	w.onResult(Discover(w.dir, w.opts))
	return nil
}

// Stop stops the watcher and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-timerC:
			timerC = nil
			w.onResult(Discover(w.dir, w.opts))
		}
	}
}

// relevant filters events down to create/write/remove/rename of files that
// would participate in discovery.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	return hasExtension(base, w.opts.Extensions) && !matchesAny(base, w.opts.Exclude)
}
