package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const aliasReloadDebounce = 200 * time.Millisecond

// AliasWatcher hot-reloads the operator alias file into the resolver.
// The parent directory is watched because editors and config pushes
// replace the file rather than writing it in place.
type AliasWatcher struct {
	path     string
	resolver *ModelResolver
	watcher  *fsnotify.Watcher

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewAliasWatcher loads the alias file once and begins watching it for
// changes. An empty path disables the watcher entirely.
func NewAliasWatcher(path string, resolver *ModelResolver) (*AliasWatcher, error) {
	if path == "" {
		return nil, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid alias file path: %w", err)
	}

	w := &AliasWatcher{
		path:     abs,
		resolver: resolver,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	if err := w.reload(); err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch alias directory: %w", err)
	}
	w.watcher = watcher

	go w.run()

	logrus.WithField("path", abs).Info("Watching model alias file")
	return w, nil
}

// Stop shuts the watcher down and waits for its goroutine to exit.
func (w *AliasWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		<-w.doneCh
	})
}

func (w *AliasWatcher) run() {
	defer close(w.doneCh)

	var pending *time.Timer
	var pendingCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors fire several events per save.
			if pending == nil {
				pending = time.NewTimer(aliasReloadDebounce)
				pendingCh = pending.C
			} else {
				pending.Reset(aliasReloadDebounce)
			}
		case <-pendingCh:
			pending = nil
			pendingCh = nil
			if err := w.reload(); err != nil {
				logrus.WithError(err).Warn("Failed to reload model alias file, keeping previous aliases")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("Alias file watcher error")
		}
	}
}

// aliasFileDoc is the override file layout: a flat alias map plus an
// optional per-family context window map.
type aliasFileDoc struct {
	Aliases        map[string]string `yaml:"aliases"`
	ContextWindows map[string]int    `yaml:"context_windows"`
}

func (w *AliasWatcher) reload() error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read alias file: %w", err)
	}

	// KnownFields catches files written in some other layout, which would
	// otherwise decode to empty maps and wipe the active overrides.
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var doc aliasFileDoc
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse alias file: %w", err)
	}

	w.resolver.ApplyOverrides(doc.Aliases, doc.ContextWindows)
	return nil
}
