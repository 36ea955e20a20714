// Package watcher reports changes to loaded image files so cached decodes
// can be dropped when a microscope or editor rewrites them.
package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher calls back once per burst of changes to a watched file.
//
// Parent directories are watched rather than the files themselves, so a
// file replaced by rename keeps being tracked.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	logger    *log.Logger
	mu        sync.Mutex
	callbacks map[string]func(string)
	dirs      map[string]int
	debounce  time.Duration
	timers    map[string]*time.Timer
	done      chan struct{}
	closeOnce sync.Once
}

// NewFileWatcher creates a watcher. logger may be nil.
func NewFileWatcher(debounce time.Duration, logger *log.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &FileWatcher{
		watcher:   w,
		logger:    logger,
		callbacks: make(map[string]func(string)),
		dirs:      make(map[string]int),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Watch registers callback for file. Watching the same file again replaces
// its callback.
func (fw *FileWatcher) Watch(file string, callback func(string)) error {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", file, err)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, exists := fw.callbacks[absPath]; !exists {
		dir := filepath.Dir(absPath)
		if fw.dirs[dir] == 0 {
			if err := fw.watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
		fw.dirs[dir]++
	}
	fw.callbacks[absPath] = callback
	return nil
}

// Unwatch stops reporting changes to file.
func (fw *FileWatcher) Unwatch(file string) error {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", file, err)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	if _, exists := fw.callbacks[absPath]; !exists {
		return nil
	}
	delete(fw.callbacks, absPath)
	if timer, exists := fw.timers[absPath]; exists {
		timer.Stop()
		delete(fw.timers, absPath)
	}

	dir := filepath.Dir(absPath)
	fw.dirs[dir]--
	if fw.dirs[dir] <= 0 {
		delete(fw.dirs, dir)
		return fw.watcher.Remove(dir)
	}
	return nil
}

// Watched lists the files currently being watched.
func (fw *FileWatcher) Watched() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	files := make([]string, 0, len(fw.callbacks))
	for f := range fw.callbacks {
		files = append(files, f)
	}
	return files
}

// Start begins delivering events on a background goroutine.
func (fw *FileWatcher) Start() {
	go func() {
		for {
			select {
			case <-fw.done:
				return
			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					fw.handleFileChange(filepath.Clean(event.Name))
				}
			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				if fw.logger != nil {
					fw.logger.Printf("Watcher error: %v", err)
				}
			}
		}
	}()
}

func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(fw.debounce, func() {
		fw.mu.Lock()
		if fw.timers[filePath] == timer {
			delete(fw.timers, filePath)
		}
		fw.mu.Unlock()
		callback(filePath)
	})
	fw.timers[filePath] = timer
}

// Close stops the watcher and pending callbacks.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		fw.mu.Lock()
		for _, t := range fw.timers {
			t.Stop()
		}
		fw.timers = make(map[string]*time.Timer)
		fw.mu.Unlock()
		err = fw.watcher.Close()
	})
	return err
}
