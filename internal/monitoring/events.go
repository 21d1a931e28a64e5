// Package monitoring receives structured stage-completion events from
// pipeline runs. Progress is reported here, never interleaved with pipeline
// control flow.
package monitoring

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// StageEvent describes the completion of one pipeline stage.
type StageEvent struct {
	RunID    string        `json:"run_id"`
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration"`
	// Counts carries stage-specific tallies, e.g. ads collected or dropped.
	Counts map[string]int `json:"counts,omitempty"`
	At     time.Time      `json:"at"`
}

// Observer consumes stage events.
type Observer interface {
	StageCompleted(ev StageEvent)
}

// ZapObserver logs stage events through the global zap logger.
type ZapObserver struct{}

// StageCompleted implements Observer.
func (ZapObserver) StageCompleted(ev StageEvent) {
	fields := []zap.Field{
		zap.String("run_id", ev.RunID),
		zap.String("stage", ev.Stage),
		zap.Duration("duration", ev.Duration),
	}
	for k, v := range ev.Counts {
		fields = append(fields, zap.Int(k, v))
	}
	zap.L().Info("pipeline stage complete", fields...)
}

// Recorder keeps recent stage events in memory, for tests and the server's
// stage-status endpoint.
type Recorder struct {
	mu     sync.Mutex
	max    int
	events []StageEvent
}

// NewRecorder creates a recorder keeping at most max events (default 256).
func NewRecorder(max int) *Recorder {
	if max <= 0 {
		max = 256
	}
	return &Recorder{max: max}
}

// StageCompleted implements Observer.
func (r *Recorder) StageCompleted(ev StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	if len(r.events) > r.max {
		r.events = r.events[len(r.events)-r.max:]
	}
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []StageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StageEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Multi fans one event out to several observers.
type Multi []Observer

// StageCompleted implements Observer.
func (m Multi) StageCompleted(ev StageEvent) {
	for _, o := range m {
		o.StageCompleted(ev)
	}
}
