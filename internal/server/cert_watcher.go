package server

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"jobscout/internal/errors"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounceDelay = time.Second

// CertWatcher watches certificate files and calls onChange once per burst of
// writes. Parent directories are watched too so atomic renames are seen.
type CertWatcher struct {
	mu sync.Mutex

	files         []string
	debounceDelay time.Duration
	onChange      func()
	logger        *errors.Logger

	fsWatcher     *fsnotify.Watcher
	debounceTimer *time.Timer
	stopChan      chan struct{}
	running       bool
}

// NewCertWatcher creates a watcher for files.
func NewCertWatcher(files []string, debounceDelay time.Duration, onChange func(), logger *errors.Logger) *CertWatcher {
	if debounceDelay <= 0 {
		debounceDelay = defaultDebounceDelay
	}
	if logger == nil {
		logger = errors.Nop()
	}
	return &CertWatcher{
		files:         files,
		debounceDelay: debounceDelay,
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching.
func (cw *CertWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.running {
		return fmt.Errorf("certificate watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dirs := make([]string, 0, len(cw.files))
	for _, f := range cw.files {
		dir := filepath.Dir(f)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}

	cw.fsWatcher = watcher
	cw.stopChan = make(chan struct{})
	cw.running = true
	go cw.watchLoop(watcher, cw.stopChan)

	cw.logger.Info("Certificate file watcher started",
		"files", cw.files,
		"debounce_delay", cw.debounceDelay)
	return nil
}

// Stop stops watching and cancels a pending reload.
func (cw *CertWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return nil
	}
	close(cw.stopChan)
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.running = false

	if err := cw.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	cw.logger.Info("Certificate file watcher stopped")
	return nil
}

// IsRunning reports whether the watcher is active.
func (cw *CertWatcher) IsRunning() bool {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.running
}

func (cw *CertWatcher) watchLoop(watcher *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if cw.isRelevant(event) {
				cw.scheduleReload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			cw.logger.LogError(err, "File watcher error")
		case <-stop:
			return
		}
	}
}

func (cw *CertWatcher) isRelevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	return slices.ContainsFunc(cw.files, func(f string) bool {
		return filepath.Clean(f) == name
	})
}

func (cw *CertWatcher) scheduleReload() {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.running {
		return
	}
	if cw.debounceTimer != nil {
		cw.debounceTimer.Stop()
	}
	cw.debounceTimer = time.AfterFunc(cw.debounceDelay, cw.onChange)
}
