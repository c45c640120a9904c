package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
)

// overridesFile is the TOML shape of a models override file.
type overridesFile struct {
	Models []modelOverride `toml:"models"`
}

type modelOverride struct {
	ID              string   `toml:"id"`
	Provider        string   `toml:"provider"`
	Family          string   `toml:"family"`
	Type            string   `toml:"type"`
	Version         string   `toml:"version"`
	Capabilities    []string `toml:"capabilities"`
	ContextWindow   int      `toml:"context_window"`
	MaxOutputTokens int      `toml:"max_output_tokens"`
	IsExperimental  bool     `toml:"experimental"`
}

// Watcher keeps a Service in sync with a TOML overrides file. Edits to
// the file are applied without a restart.
type Watcher struct {
	log     *slog.Logger
	service *Service
	path    string
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher loads the overrides file (if present) and starts watching
// it for changes. The parent directory is watched so editors that
// replace the file on save are still seen.
func NewWatcher(service *Service, path string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	w := &Watcher{
		log:     log,
		service: service,
		path:    filepath.Clean(path),
		done:    make(chan struct{}),
	}

	if err := w.apply(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch model overrides: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch model overrides: %w", err)
	}
	w.fsw = fsw

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.apply(); err != nil {
				w.log.Warn("model overrides reload failed", "path", w.path, "error", err)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("model overrides watch error", "error", err)
		}
	}
}

// apply reads the overrides file and registers every model in it.
func (w *Watcher) apply() error {
	var overrides overridesFile
	if _, err := toml.DecodeFile(w.path, &overrides); err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("decode model overrides: %w", err)
	}

	for _, o := range overrides.Models {
		if o.ID == "" {
			continue
		}
		w.service.Register(Model{
			ID:              o.ID,
			Provider:        o.Provider,
			Family:          o.Family,
			Type:            o.Type,
			Version:         o.Version,
			Capabilities:    o.Capabilities,
			ContextWindow:   o.ContextWindow,
			MaxOutputTokens: o.MaxOutputTokens,
			IsExperimental:  o.IsExperimental,
		})
	}

	w.log.Info("model overrides applied", "path", w.path, "count", len(overrides.Models))
	return nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}
