// Package promptstore loads named prompt templates from PROMPT_DIR at
// startup and substitutes {placeholder} markers at render time (§9 "prompt
// storage: module-level dict of prompt strings" reinterpreted as named
// template files loaded once into a Store). Grounded on the teacher's
// internal/templates/registry.go discovery-and-cache shape, trimmed to a
// single local directory source and simplified substitution instead of the
// teacher's multi-source template engine — this system has no remote
// template registry to discover from.
package promptstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Store holds every prompt template discovered under a directory, keyed by
// file name without extension (e.g. "dependency_necessity.txt" -> "dependency_necessity").
type Store struct {
	dir       string
	mu        sync.RWMutex
	templates map[string]string
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
}

// Load discovers every *.txt / *.tmpl file directly under dir and reads it
// into the Store. It does not recurse — prompt files are flat, one per
// named template, matching PROMPT_DIR's documented layout (§6).
func Load(dir string) (*Store, error) {
	s := &Store{
		dir:       dir,
		templates: make(map[string]string),
		logger:    slog.Default().With("component", "promptstore"),
	}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("promptstore: read dir %s: %w", s.dir, err)
	}

	loaded := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".txt" && ext != ".tmpl" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		raw, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("promptstore: read %s: %w", entry.Name(), err)
		}
		loaded[name] = string(raw)
	}

	s.mu.Lock()
	s.templates = loaded
	s.mu.Unlock()

	s.logger.Info("loaded prompt templates", "count", len(loaded), "dir", s.dir)
	return nil
}

// Watch starts an fsnotify watcher that reloads the store whenever a file
// under dir changes, matching the teacher's template hot-reload behavior.
// Callers that don't need hot-reload (most one-shot CLI stages) can skip
// calling Watch entirely.
func (s *Store) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("promptstore: new watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("promptstore: watch %s: %w", s.dir, err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					if err := s.reload(); err != nil {
						s.logger.Warn("prompt reload failed", "error", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("prompt watcher error", "error", err)
			}
		}
	}()
	return nil
}

// Close stops the hot-reload watcher, if one was started.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}

// Render looks up name and substitutes every {key} marker in vars, leaving
// unmatched markers untouched so a missing var fails loudly downstream
// rather than silently vanishing.
func (s *Store) Render(name string, vars map[string]string) (string, error) {
	s.mu.RLock()
	tmpl, ok := s.templates[name]
	s.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("promptstore: no template named %q", name)
	}

	out := tmpl
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out, nil
}
