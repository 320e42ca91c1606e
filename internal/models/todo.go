package models

import "time"

// Priority is the urgency of a todo.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority returns the priority named by s and whether it was recognized.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s), true
	}
	return "", false
}

// Todo represents a todo item owned by one user.
// CompletedAt is non-nil exactly when Completed is true; change completion
// only through MarkCompleted and MarkIncomplete.
type Todo struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"size:200;not null"`
	Description *string    `json:"description" gorm:"type:text"`
	Completed   bool       `json:"completed" gorm:"not null;default:false;index"`
	Priority    Priority   `json:"priority" gorm:"size:20;not null;default:medium"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
	UserID      uint       `json:"user_id" gorm:"not null;index"`
}

// MarkCompleted sets the todo completed at now. No-op when already completed.
func (t *Todo) MarkCompleted(now time.Time) bool {
	if t.Completed {
		return false
	}
	now = now.UTC()
	t.Completed = true
	t.CompletedAt = &now
	return true
}

// MarkIncomplete clears completion. No-op when not completed.
func (t *Todo) MarkIncomplete() bool {
	if !t.Completed {
		return false
	}
	t.Completed = false
	t.CompletedAt = nil
	return true
}

// SetCompleted routes a requested completion state through the mark methods.
func (t *Todo) SetCompleted(completed bool, now time.Time) bool {
	if completed {
		return t.MarkCompleted(now)
	}
	return t.MarkIncomplete()
}

// IsOverdue reports whether the todo is incomplete and past its due date.
func (t *Todo) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// TodoStats summarizes one user's todos.
type TodoStats struct {
	TotalTodos        int64             `json:"total_todos"`
	CompletedTodos    int64             `json:"completed_todos"`
	PendingTodos      int64             `json:"pending_todos"`
	CompletionRate    float64           `json:"completion_rate"`
	PriorityBreakdown PriorityBreakdown `json:"priority_breakdown"`
	OverdueTodos      int64             `json:"overdue_todos"`
}

// PriorityBreakdown counts incomplete todos per priority.
type PriorityBreakdown struct {
	High   int64 `json:"high"`
	Medium int64 `json:"medium"`
	Low    int64 `json:"low"`
}
