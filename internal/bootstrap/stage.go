// Package bootstrap assembles the gateway's five subsystems — provider
// registry, sandbox router, browser pool, channel sink, terminal multiplexer
// gate — from a loaded config.MoltisConfig, grounded on the teacher's
// internal/delivery/server/bootstrap staged-init pattern.
package bootstrap

import (
	"fmt"
	"sync"

	"github.com/moltislabs/moltis/internal/logging"
)

// Stage is a single named initialization step. Required stages abort
// RunStages on error; optional stages are recorded as degraded and startup
// continues without them.
type Stage struct {
	Name     string
	Required bool
	Init     func() error
}

// Degraded tracks optional stages that failed without aborting startup.
type Degraded struct {
	mu     sync.RWMutex
	byName map[string]string
}

// NewDegraded builds an empty degraded-component tracker.
func NewDegraded() *Degraded {
	return &Degraded{byName: make(map[string]string)}
}

func (d *Degraded) record(name, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byName[name] = reason
}

// Map returns a snapshot of every degraded stage and why it failed.
func (d *Degraded) Map() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.byName))
	for k, v := range d.byName {
		out[k] = v
	}
	return out
}

// IsEmpty reports whether any stage degraded.
func (d *Degraded) IsEmpty() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byName) == 0
}

// RunStages runs stages in order. A required stage's error aborts the run;
// an optional stage's error is recorded on degraded and execution continues.
func RunStages(stages []Stage, degraded *Degraded, log *logging.ComponentLogger) error {
	for _, stage := range stages {
		log.Info("running stage %q (required=%v)", stage.Name, stage.Required)
		if err := stage.Init(); err != nil {
			if stage.Required {
				return fmt.Errorf("bootstrap: required stage %q failed: %w", stage.Name, err)
			}
			log.Warn("optional stage %q failed, continuing degraded: %v", stage.Name, err)
			if degraded != nil {
				degraded.record(stage.Name, err.Error())
			}
		}
	}
	return nil
}
