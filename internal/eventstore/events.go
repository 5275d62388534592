package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Event is one recorded step of a run. The JSON form is also the NATS
// message body.
type Event struct {
	Seq     int64           `json:"seq,omitempty"`
	RunID   string          `json:"run_id"`
	Type    string          `json:"type"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e *Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return errors.HistoryError("event has no payload").WithContext("type", e.Type).Build()
	}
	return json.Unmarshal(e.Payload, v)
}

// Event types.
const (
	TypeRunStarted   = "RunStarted"
	TypeTaskStarted  = "TaskStarted"
	TypeTaskFinished = "TaskFinished"
	TypeRunFinished  = "RunFinished"
)

// Outcomes carried by TaskFinished and RunFinished.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// RunStartedPayload is the payload of TypeRunStarted.
type RunStartedPayload struct {
	Plan string `json:"plan"`
}

// TaskStartedPayload is the payload of TypeTaskStarted.
type TaskStartedPayload struct {
	Task string `json:"task"`
}

// TaskFinishedPayload is the payload of TypeTaskFinished.
type TaskFinishedPayload struct {
	Task       string `json:"task"`
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunFinishedPayload is the payload of TypeRunFinished.
type RunFinishedPayload struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID, plan string) (*Event, error) {
	return newEvent(runID, TypeRunStarted, RunStartedPayload{Plan: plan})
}

// NewTaskStarted creates a TaskStarted event.
func NewTaskStarted(runID, task string) (*Event, error) {
	return newEvent(runID, TypeTaskStarted, TaskStartedPayload{Task: task})
}

// NewTaskFinished creates a TaskFinished event.
func NewTaskFinished(runID, task, outcome string, d time.Duration, taskErr error) (*Event, error) {
	return newEvent(runID, TypeTaskFinished, TaskFinishedPayload{
		Task:       task,
		Outcome:    outcome,
		DurationMS: d.Milliseconds(),
		Error:      errorText(taskErr),
	})
}

// NewRunFinished creates a RunFinished event.
func NewRunFinished(runID, outcome string, d time.Duration, runErr error) (*Event, error) {
	return newEvent(runID, TypeRunFinished, RunFinishedPayload{
		Outcome:    outcome,
		DurationMS: d.Milliseconds(),
		Error:      errorText(runErr),
	})
}

func newEvent(runID, eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.HistoryError("failed to marshal " + eventType + " payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	return &Event{RunID: runID, Type: eventType, Time: time.Now(), Payload: data}, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
