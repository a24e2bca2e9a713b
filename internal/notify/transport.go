package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Transport carries change events across execution contexts (other
// processes watching the same data). It is best-effort: the signal slot
// holds only the most recent event, so between two contexts' writes the
// last signal observed wins.
type Transport interface {
	// Announce writes the event to the cross-context signal slot.
	Announce(Event) error

	// Listen invokes handler for every event announced by another context.
	// The returned stop function ends the listener.
	Listen(handler Handler) (stop func() error, err error)
}

// FileTransport signals through a shared file: writing the serialized event
// to the signal path raises a filesystem notification observable by every
// other context watching the same path.
type FileTransport struct {
	path string
	log  *zap.Logger
}

// NewFileTransport creates a transport over the given signal path.
func NewFileTransport(path string, log *zap.Logger) *FileTransport {
	return &FileTransport{path: path, log: log}
}

// Announce serializes the event into the signal file, overwriting any
// previous signal.
func (t *FileTransport) Announce(e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode signal event: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create signal dir: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("write signal file: %w", err)
	}
	return nil
}

// Listen watches the signal file's directory and republishes every signal
// write as an Event. Watching the directory rather than the file survives
// the file not existing yet.
func (t *FileTransport) Listen(handler Handler) (func() error, error) {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create signal dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch signal dir: %w", err)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != t.path || !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
					continue
				}
				e, err := t.readSignal()
				if err != nil {
					t.log.Warn("unreadable signal, ignoring", zap.Error(err))
					continue
				}
				handler(e)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				t.log.Warn("signal watcher error", zap.Error(err))
			}
		}
	}()

	stop := func() error {
		close(done)
		return watcher.Close()
	}
	return stop, nil
}

// readSignal decodes the current contents of the signal slot.
func (t *FileTransport) readSignal() (Event, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return Event{}, fmt.Errorf("read signal file: %w", err)
	}

	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("decode signal event: %w", err)
	}
	return e, nil
}
