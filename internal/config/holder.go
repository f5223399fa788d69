// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/streamkit/playctl/internal/log"
)

// Holder holds the live configuration and supports atomic hot reloading
// from file. If a reload fails validation, the previous configuration is
// kept untouched.
type Holder struct {
	mu         sync.RWMutex
	current    Config
	loader     *Loader
	configPath string
	logger     zerolog.Logger

	watcher   *fsnotify.Watcher
	watchDone chan struct{}

	listenerMu sync.Mutex
	listeners  []func(Config)
}

// NewHolder creates a holder around the initial configuration.
func NewHolder(initial Config, loader *Loader, configPath string) *Holder {
	return &Holder{
		current:    initial,
		loader:     loader,
		configPath: configPath,
		logger:     log.WithComponent("config"),
	}
}

// Get returns the current configuration.
func (h *Holder) Get() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnReload registers a callback invoked with every successfully applied
// configuration. Callbacks run on the reload goroutine and must not block.
func (h *Holder) OnReload(fn func(Config)) {
	h.listenerMu.Lock()
	defer h.listenerMu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload re-runs the loader and applies the result atomically.
func (h *Holder) Reload() error {
	h.logger.Info().Str(log.FieldEvent, "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	if err != nil {
		h.logger.Error().
			Err(err).
			Str(log.FieldEvent, "config.reload_failed").
			Msg("keeping previous configuration")
		return err
	}

	h.mu.Lock()
	h.current = newCfg
	h.mu.Unlock()

	h.logger.Info().Str(log.FieldEvent, "config.reloaded").Msg("configuration reloaded")

	h.listenerMu.Lock()
	listeners := append([]func(Config){}, h.listeners...)
	h.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(newCfg)
	}
	return nil
}

// Watch starts reacting to writes of the config file. It watches the parent
// directory so editors that replace the file atomically still trigger.
func (h *Holder) Watch() error {
	if h.configPath == "" {
		return fmt.Errorf("no config file to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(h.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", h.configPath, err)
	}

	h.mu.Lock()
	h.watcher = watcher
	h.watchDone = make(chan struct{})
	done := h.watchDone
	h.mu.Unlock()

	go h.watchLoop(watcher, done)
	return nil
}

// StopWatching tears the watcher down. Safe to call without Watch.
func (h *Holder) StopWatching() {
	h.mu.Lock()
	watcher, done := h.watcher, h.watchDone
	h.watcher = nil
	h.watchDone = nil
	h.mu.Unlock()

	if watcher == nil {
		return
	}
	_ = watcher.Close()
	<-done
}

func (h *Holder) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	target := filepath.Clean(h.configPath)
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := h.Reload(); err != nil {
				continue
			}
		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
