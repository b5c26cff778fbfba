package scheduler

import (
	"time"

	"github.com/mohamedkhairy/stock-advisor/internal/models"
)

// TaskStatus is the lifecycle state of a batch analysis task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether the status is final. Terminal tasks never change
// again.
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Failure records one instrument that could not be analyzed. Per-item
// failures do not fail the task.
type Failure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Task is one batch analysis job. Progress counts instruments finished
// (succeeded or failed); a cancelled task keeps the reports produced before
// the cancellation took effect.
type Task struct {
	ID          string                   `json:"task_id"`
	Symbols     []string                 `json:"symbols"`
	RuleIDs     []string                 `json:"rule_ids,omitempty"`
	Status      TaskStatus               `json:"status"`
	Progress    int                      `json:"progress"`
	Total       int                      `json:"total"`
	CurrentItem string                   `json:"current_item,omitempty"`
	Message     string                   `json:"message,omitempty"`
	Reports     []*models.AnalysisReport `json:"reports,omitempty"`
	Failures    []Failure                `json:"failures,omitempty"`
	Error       string                   `json:"error,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	StartedAt   *time.Time               `json:"started_at,omitempty"`
	FinishedAt  *time.Time               `json:"finished_at,omitempty"`
}

// snapshot returns a copy safe to hand to callers while the worker keeps
// mutating the original under the scheduler lock.
func (t *Task) snapshot() *Task {
	out := *t
	out.Symbols = append([]string(nil), t.Symbols...)
	out.RuleIDs = append([]string(nil), t.RuleIDs...)
	out.Reports = append([]*models.AnalysisReport(nil), t.Reports...)
	out.Failures = append([]Failure(nil), t.Failures...)
	if t.StartedAt != nil {
		started := *t.StartedAt
		out.StartedAt = &started
	}
	if t.FinishedAt != nil {
		finished := *t.FinishedAt
		out.FinishedAt = &finished
	}
	return &out
}
