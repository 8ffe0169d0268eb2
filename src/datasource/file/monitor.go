// monitor.go
package file

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileMonitor pushes change notifications for watched files and
// directories to a handler. Editors and network copies fire several
// write events per save, so events are deduplicated by modification
// time before the handler runs.
type FileMonitor struct {
	watcher *fsnotify.Watcher
	lastMod map[string]time.Time
	mu      sync.Mutex
}

func NewFileMonitor(paths ...string) (*FileMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, p := range paths {
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %s: %w", p, err)
		}
	}

	return &FileMonitor{
		watcher: watcher,
		lastMod: make(map[string]time.Time),
	}, nil
}

// Add registers a further file or directory with the running monitor.
func (m *FileMonitor) Add(path string) error {
	return m.watcher.Add(path)
}

// Watch blocks, invoking handler in its own goroutine for every fresh
// write under the watched paths. It returns when the monitor is closed.
func (m *FileMonitor) Watch(handler func(string)) error {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil || info.IsDir() {
				continue
			}

			m.mu.Lock()
			if info.ModTime().After(m.lastMod[event.Name]) {
				m.lastMod[event.Name] = info.ModTime()
				go handler(event.Name)
			}
			m.mu.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}
