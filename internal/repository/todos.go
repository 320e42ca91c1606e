package repository

import (
	"context"
	"errors"
	"math"
	"time"

	"todoapp/internal/apperr"
	"todoapp/internal/models"
	"todoapp/pkg/logger"

	"gorm.io/gorm"
)

// ErrTodoNotFound covers both missing todos and todos owned by someone else.
var ErrTodoNotFound = apperr.NotFound("Todo not found")

// TodoFilter narrows a todo listing. Zero values mean no filter.
type TodoFilter struct {
	Completed *bool
	Priority  models.Priority
	Search    string
}

// Todos is the todo store for a single owner. Every statement it issues is
// constrained to that owner's user_id.
type Todos struct {
	db     *gorm.DB
	userID uint
}

func (r *Todos) scoped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Todo{}).Where("user_id = ?", r.userID)
}

func (r *Todos) filtered(ctx context.Context, f TodoFilter) *gorm.DB {
	q := r.scoped(ctx)
	if f.Completed != nil {
		q = q.Where("completed = ?", *f.Completed)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Search != "" {
		p := containsPattern(f.Search)
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, p, p)
	}
	return q
}

// List returns one page of todos, newest first, and the total matching count.
func (r *Todos) List(ctx context.Context, f TodoFilter, page, perPage int) ([]models.Todo, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		logger.Error(ctx, "Repository count todos failed", "error", err)
		return nil, 0, err
	}
	todos := make([]models.Todo, 0, perPage)
	err := r.filtered(ctx, f).
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&todos).Error
	if err != nil {
		logger.Error(ctx, "Repository list todos failed", "error", err)
		return nil, 0, err
	}
	return todos, total, nil
}

// Get returns the owner's todo with that id.
func (r *Todos) Get(ctx context.Context, id uint) (*models.Todo, error) {
	var t models.Todo
	err := r.scoped(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		logger.Error(ctx, "Repository get todo failed", "error", err, "id", id)
		return nil, err
	}
	return &t, nil
}

// Create inserts a todo owned by this store's user.
func (r *Todos) Create(ctx context.Context, t *models.Todo) error {
	t.ID = 0
	t.UserID = r.userID
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		logger.Error(ctx, "Repository create todo failed", "error", err)
		return err
	}
	return nil
}

// CreateBatch inserts todos for this store's user, batchSize rows per statement.
func (r *Todos) CreateBatch(ctx context.Context, todos []models.Todo, batchSize int) error {
	for i := range todos {
		todos[i].ID = 0
		todos[i].UserID = r.userID
		if todos[i].Priority == "" {
			todos[i].Priority = models.PriorityMedium
		}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(todos, batchSize).Error; err != nil {
		logger.Error(ctx, "Repository batch create todos failed", "error", err, "count", len(todos))
		return err
	}
	return nil
}

// Save writes the mutable fields of an existing todo.
func (r *Todos) Save(ctx context.Context, t *models.Todo) error {
	if t.UserID != r.userID {
		return ErrTodoNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	res := r.scoped(ctx).Where("id = ?", t.ID).Updates(map[string]interface{}{
		"title":        t.Title,
		"description":  t.Description,
		"completed":    t.Completed,
		"priority":     t.Priority,
		"due_date":     t.DueDate,
		"completed_at": t.CompletedAt,
		"updated_at":   t.UpdatedAt,
	})
	if res.Error != nil {
		logger.Error(ctx, "Repository save todo failed", "error", res.Error, "id", t.ID)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// Delete removes the owner's todo with that id.
func (r *Todos) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, r.userID).Delete(&models.Todo{})
	if res.Error != nil {
		logger.Error(ctx, "Repository delete todo failed", "error", res.Error, "id", id)
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// Count returns how many todos the owner has.
func (r *Todos) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.scoped(ctx).Count(&n).Error; err != nil {
		logger.Error(ctx, "Repository count todos failed", "error", err)
		return 0, err
	}
	return n, nil
}

type statsRow struct {
	Completed bool
	Priority  models.Priority
	N         int64
}

// Stats aggregates the owner's todos. Overdue means incomplete with a due
// date before now.
func (r *Todos) Stats(ctx context.Context, now time.Time) (models.TodoStats, error) {
	var rows []statsRow
	err := r.scoped(ctx).
		Select("completed, priority, COUNT(*) AS n").
		Group("completed, priority").
		Scan(&rows).Error
	if err != nil {
		logger.Error(ctx, "Repository todo stats failed", "error", err)
		return models.TodoStats{}, err
	}

	var stats models.TodoStats
	for _, row := range rows {
		stats.TotalTodos += row.N
		if row.Completed {
			stats.CompletedTodos += row.N
			continue
		}
		switch row.Priority {
		case models.PriorityHigh:
			stats.PriorityBreakdown.High += row.N
		case models.PriorityMedium:
			stats.PriorityBreakdown.Medium += row.N
		case models.PriorityLow:
			stats.PriorityBreakdown.Low += row.N
		}
	}
	stats.PendingTodos = stats.TotalTodos - stats.CompletedTodos
	stats.CompletionRate = CompletionRate(stats.CompletedTodos, stats.TotalTodos)

	err = r.scoped(ctx).
		Where("completed = ? AND due_date IS NOT NULL AND due_date < ?", false, now.UTC()).
		Count(&stats.OverdueTodos).Error
	if err != nil {
		logger.Error(ctx, "Repository overdue count failed", "error", err)
		return models.TodoStats{}, err
	}
	return stats, nil
}

// CompletionRate is completed/total as a percentage rounded to two decimals,
// or 0 when there are no todos.
func CompletionRate(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}
