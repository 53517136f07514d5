// Package orchestrator composes parse -> index-lookup -> route -> fetch
// (fan-out) -> normalize -> cache-store into the single pipeline. It is
// the only package that knows about every other package in the module;
// everything else stays decoupled from its neighbors.
package orchestrator

import (
	"time"

	"github.com/hanlulong/openecon-data-sub002/internal/model"
)

// EventType is the closed set of event names a pipeline run emits.
type EventType string

const (
	EventStep EventType = "step"
	EventData EventType = "data"
	EventWarn EventType = "warning"
	EventError EventType = "error"
	EventDone EventType = "done"
)

// StepStatus is the closed set of states a step event reports.
type StepStatus string

const (
	StepStarted StepStatus = "started"
	StepCompleted StepStatus = "completed"
	StepFailed StepStatus = "failed"
)

// Event is the uniform SSE payload shape.
type Event struct {
	Type EventType `json:"type"`
	Step string `json:"step,omitempty"`
	Status StepStatus `json:"status,omitempty"`
	DurationMs int64 `json:"durationMs,omitempty"`
	Partial bool `json:"partial,omitempty"`
	Data interface{} `json:"data,omitempty"`
	Kind string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Provider string `json:"provider,omitempty"`
	Intent *model.ParsedIntent `json:"intent,omitempty"`
}

// Emitter receives Events as the pipeline progresses. The non-streaming
// POST /query path (Run) collects them with a closure; SSE uses one that
// writes directly to the response.
type Emitter func(Event)

func stepEvent(name string, status StepStatus, started time.Time) Event {
	ev := Event{Type: EventStep, Step: name, Status: status}
	if status != StepStarted {
 ev.DurationMs = time.Since(started).Milliseconds()
	}
	return ev
}
