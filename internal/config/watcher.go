package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// ReloadedMsg is delivered to the program after the config file changed and
// was re-read successfully.
type ReloadedMsg struct {
	Config *Config
}

// ReloadFailedMsg is delivered when a changed config file could not be read.
type ReloadFailedMsg struct {
	Err error
}

// debounce absorbs the burst of events editors emit on save.
const debounce = 150 * time.Millisecond

// Watcher re-reads the config file whenever it changes.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	send    func(tea.Msg)
	logger  *slog.Logger
	done    chan struct{}
	stopped sync.Once
}

// Watch starts watching path. The parent directory is watched rather than
// the file so that atomic rename-on-save is picked up. Messages are handed
// to send, usually (*tea.Program).Send.
func Watch(path string, send func(tea.Msg), logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{
		path:   filepath.Clean(path),
		fsw:    fsw,
		send:   send,
		logger: logger,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config: watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFrom(w.path)
	if err != nil {
		w.logger.Warn("config: reload failed", "path", w.path, "error", err)
		w.send(ReloadFailedMsg{Err: err})
		return
	}
	w.logger.Info("config: reloaded", "path", w.path)
	w.send(ReloadedMsg{Config: cfg})
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.stopped.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
