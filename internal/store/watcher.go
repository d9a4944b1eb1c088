package store

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"scrapersetup/internal/config"
	"scrapersetup/internal/logger"
)

// Watcher re-reads the artifacts whenever either one is replaced and hands
// the validated result to a callback. Artifacts that fail to read or
// validate are logged and skipped.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	onChange func(*config.Config, *config.Secrets)

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Watch creates a Watcher for s. Call Start to begin watching.
func (s *Store) Watch(onChange func(*config.Config, *config.Secrets)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		store:    s,
		watcher:  w,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}, nil
}

// Start watches both artifact directories. They must already exist.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	for _, dir := range []string{w.store.configDir, w.store.secretsDir} {
		if err := w.watcher.Add(dir); err != nil {
			return &IoError{Op: "watch", Path: dir, Err: err}
		}
	}
	w.running = true

	log := logger.WithComponent("store-watcher")
	log.Info().
		Str("config", w.store.ConfigPath()).
		Str("secrets", w.store.SecretsPath()).
		Msg("Started watching artifacts")

	w.wg.Add(1)
	go w.watch()
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// IsRunning returns whether the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watch() {
	defer w.wg.Done()
	log := logger.WithComponent("store-watcher")

	targets := map[string]bool{
		filepath.Clean(w.store.ConfigPath()):  true,
		filepath.Clean(w.store.SecretsPath()): true,
	}

	for {
		select {
		case <-w.stopChan:
			log.Info().Msg("Artifact watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !targets[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Info().
				Str("path", event.Name).
				Str("event", event.Op.String()).
				Msg("Artifact changed, reloading")

			cfg, secrets, err := w.store.Read()
			if err != nil {
				log.Warn().Err(err).Msg("Skipping unreadable artifacts")
				continue
			}
			if w.onChange != nil {
				w.onChange(cfg, secrets)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("Artifact watcher error")
		}
	}
}
