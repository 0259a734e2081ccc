package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a config file through fsnotify and re-validates on each change,
// grounded on the teacher's internal/config/runtime_watcher.go idiom.
type Watcher struct {
	path    string
	onNext  func(MoltisConfig, []Diagnostic, []string)
	current string
}

// NewWatcher constructs a Watcher that calls onNext with the newly loaded
// config, its diagnostics, and the changed lines of config text (via
// diffLines) every time path's contents change.
func NewWatcher(path string, onNext func(MoltisConfig, []Diagnostic, []string)) *Watcher {
	return &Watcher{path: path, onNext: onNext}
}

// Run blocks, watching w.path until ctx is cancelled. The first successful
// load fires onNext immediately with an empty diff.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(w.path); err != nil {
		return err
	}

	w.reload(nil)

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = true
				debounce.Reset(150 * time.Millisecond)
			}
		case <-debounce.C:
			if pending {
				pending = false
				w.reload(diffLines)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error: %v", err)
		}
	}
}

func (w *Watcher) reload(diffFn func(old, new string) []string) {
	cfg, diags, err := Load(w.path)
	if err != nil {
		log.Error("config reload failed: %v", err)
		return
	}
	var changed []string
	raw, rerr := readRaw(w.path)
	if rerr == nil {
		if diffFn != nil && w.current != "" {
			changed = diffFn(w.current, raw)
		}
		w.current = raw
	}
	w.onNext(cfg, diags, changed)
}
