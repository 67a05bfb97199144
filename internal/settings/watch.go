package settings

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads settings when the file changes on disk, for example when
// another viewer window saves them.
type Watcher struct {
	s      *Settings
	fw     *fsnotify.Watcher
	stopCh chan struct{}
	done   chan struct{}
}

// Watch starts watching the settings file. The directory is watched rather
// than the file so that editors replacing the file are seen too.
func (s *Settings) Watch() (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create settings watcher: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		s:      s,
		fw:     fw,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fw.Close()
	<-w.done
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	name := filepath.Clean(w.s.path)

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != name || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if err := w.s.Reload(); err != nil {
				// Partial writes show up as parse errors; the next event retries.
				w.s.log.Debug().Err(err).Msg("settings reload skipped")
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.s.log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
