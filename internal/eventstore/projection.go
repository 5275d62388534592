package eventstore

import (
	"context"
	"time"
)

// StatusRunning marks a run without a RunFinished event.
const StatusRunning = "running"

// TaskSummary is the outcome of one task within a run.
type TaskSummary struct {
	Name     string        `json:"name"`
	Outcome  string        `json:"outcome"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// RunSummary is a read model of one run reconstructed from its events.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Plan        string        `json:"plan"`
	Status      string        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Tasks       []TaskSummary `json:"tasks"`
	// FailedTask is the first task that failed, if any.
	FailedTask   string `json:"failed_task,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Summarize folds the events of a single run into a summary. Events of
// other runs and undecodable payloads are ignored.
func Summarize(runID string, events []*Event) *RunSummary {
	s := &RunSummary{RunID: runID, Status: StatusRunning}
	for _, e := range events {
		if e.RunID != runID {
			continue
		}
		if s.StartedAt.IsZero() {
			s.StartedAt = e.Time
		}
		s.apply(e)
	}
	return s
}

func (s *RunSummary) apply(e *Event) {
	switch e.Type {
	case TypeRunStarted:
		var p RunStartedPayload
		if e.Decode(&p) == nil {
			s.Plan = p.Plan
		}
		s.StartedAt = e.Time

	case TypeTaskFinished:
		var p TaskFinishedPayload
		if e.Decode(&p) != nil {
			return
		}
		s.Tasks = append(s.Tasks, TaskSummary{
			Name:     p.Task,
			Outcome:  p.Outcome,
			Duration: time.Duration(p.DurationMS) * time.Millisecond,
			Error:    p.Error,
		})
		if p.Outcome == OutcomeFailed && s.FailedTask == "" {
			s.FailedTask = p.Task
		}

	case TypeRunFinished:
		var p RunFinishedPayload
		if e.Decode(&p) != nil {
			return
		}
		done := e.Time
		s.CompletedAt = &done
		s.Duration = time.Duration(p.DurationMS) * time.Millisecond
		s.Status = p.Outcome
		s.ErrorMessage = p.Error
	}
}

// History returns summaries of the latest limit runs, newest first.
func History(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	ids, err := store.RecentRunIDs(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*RunSummary, 0, len(ids))
	for _, id := range ids {
		events, err := store.GetByRunID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, Summarize(id, events))
	}
	return out, nil
}
