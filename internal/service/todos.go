package service

import (
	"context"
	"math"
	"strings"
	"time"

	"todoapp/internal/apperr"
	"todoapp/internal/cache"
	"todoapp/internal/models"
	"todoapp/internal/notify"
	"todoapp/internal/repository"
	"todoapp/pkg/logger"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
	// maxPage keeps (page-1)*perPage within int.
	maxPage = math.MaxInt / maxPerPage
)

// dueDateLayouts are the ISO-8601 forms accepted for due_date. Layouts
// without a zone are read as UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ListQuery is a todo listing request as received from the client.
// Completed is the raw filter value; nil means no filter.
type ListQuery struct {
	Page      int
	PerPage   int
	Completed *string
	Priority  string
	Search    string
}

type Pagination struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

type TodoPage struct {
	Todos      []models.Todo `json:"todos"`
	Pagination Pagination    `json:"pagination"`
}

// NewTodo is a create request. Fields are raw and validated by Create.
type NewTodo struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"`
}

// TodoPatch is a partial update: only fields present in the payload apply.
type TodoPatch struct {
	Title       models.Optional[string] `json:"title"`
	Description models.Optional[string] `json:"description"`
	Priority    models.Optional[string] `json:"priority"`
	DueDate     models.Optional[string] `json:"due_date"`
	Completed   models.Optional[bool]   `json:"completed"`
}

// Todos implements the todo operations for an authenticated user. Every
// call goes through a store scoped to that user's id.
type Todos struct {
	store    *repository.Store
	stats    *cache.StatsCache
	notifier Notifier
	now      func() time.Time
}

func NewTodos(store *repository.Store, stats *cache.StatsCache, notifier Notifier) *Todos {
	if stats == nil {
		stats = cache.NewStatsCache(nil, 0)
	}
	return &Todos{store: store, stats: stats, notifier: notifier, now: time.Now}
}

// List returns one page of the user's todos, newest first.
func (s *Todos) List(ctx context.Context, user *models.User, q ListQuery) (*TodoPage, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	perPage := q.PerPage
	switch {
	case perPage == 0:
		perPage = defaultPerPage
	case perPage < 1:
		perPage = 1
	case perPage > maxPerPage:
		perPage = maxPerPage
	}

	var filter repository.TodoFilter
	if q.Completed != nil {
		v := strings.ToLower(strings.TrimSpace(*q.Completed))
		completed := v == "true" || v == "1" || v == "yes"
		filter.Completed = &completed
	}
	if p, ok := models.ParsePriority(q.Priority); ok {
		filter.Priority = p
	}
	filter.Search = strings.TrimSpace(q.Search)

	var (
		todos []models.Todo
		total int64
	)
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		todos, total, err = tx.Todos(user.ID).List(ctx, filter, page, perPage)
		return err
	})
	if err != nil {
		return nil, failed(err, "Failed to get todos")
	}

	pages := (total + int64(perPage) - 1) / int64(perPage)
	return &TodoPage{
		Todos: todos,
		Pagination: Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
			HasNext: int64(page) < pages,
			HasPrev: page > 1,
		},
	}, nil
}

// Create validates in and stores a new todo for user.
func (s *Todos) Create(ctx context.Context, user *models.User, in NewTodo) (*models.Todo, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.BadRequest("Title is required")
	}
	priority, ok := models.ParsePriority(in.Priority)
	if !ok {
		priority = models.PriorityMedium
	}
	todo := &models.Todo{
		Title:       title,
		Description: trimmedOrNil(in.Description),
		Priority:    priority,
	}
	if in.DueDate != nil && *in.DueDate != "" {
		due, err := ParseDueDate(*in.DueDate)
		if err != nil {
			return nil, apperr.BadRequest("Invalid due_date format. Use ISO format.")
		}
		todo.DueDate = &due
	}

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		return tx.Todos(user.ID).Create(ctx, todo)
	})
	if err != nil {
		return nil, failed(err, "Failed to create todo")
	}
	s.stats.Invalidate(ctx, user.ID)

	logger.Info(ctx, "Todo created", "user_id", user.ID, "todo_id", todo.ID)
	s.notifier.Notify(context.WithoutCancel(ctx), notify.TodoCreated(user.Email, user.FirstName, todo.Title, todo.Description))
	return todo, nil
}

// Get returns the user's todo with id.
func (s *Todos) Get(ctx context.Context, user *models.User, id uint) (*models.Todo, error) {
	var todo *models.Todo
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		var err error
		todo, err = tx.Todos(user.ID).Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, failed(err, "Failed to get todo")
	}
	return todo, nil
}

// Update applies patch to the user's todo with id.
func (s *Todos) Update(ctx context.Context, user *models.User, id uint, patch TodoPatch) (*models.Todo, error) {
	var todo *models.Todo
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		todos := tx.Todos(user.ID)
		var err error
		todo, err = todos.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.apply(todo, patch); err != nil {
			return err
		}
		return todos.Save(ctx, todo)
	})
	if err != nil {
		return nil, failed(err, "Failed to update todo")
	}
	s.stats.Invalidate(ctx, user.ID)
	return todo, nil
}

func (s *Todos) apply(todo *models.Todo, patch TodoPatch) error {
	if patch.Title.Set {
		title := strings.TrimSpace(patch.Title.Value)
		if patch.Title.Null || title == "" {
			return apperr.BadRequest("Title cannot be empty")
		}
		todo.Title = title
	}
	if patch.Description.Set {
		if patch.Description.Null {
			todo.Description = nil
		} else {
			todo.Description = trimmedOrNil(&patch.Description.Value)
		}
	}
	if patch.Priority.Set && !patch.Priority.Null {
		if p, ok := models.ParsePriority(patch.Priority.Value); ok {
			todo.Priority = p
		}
	}
	if patch.DueDate.Set {
		if patch.DueDate.Null || patch.DueDate.Value == "" {
			todo.DueDate = nil
		} else {
			due, err := ParseDueDate(patch.DueDate.Value)
			if err != nil {
				return apperr.BadRequest("Invalid due_date format")
			}
			todo.DueDate = &due
		}
	}
	if patch.Completed.Set {
		todo.SetCompleted(!patch.Completed.Null && patch.Completed.Value, s.now())
	}
	return nil
}

// Delete removes the user's todo with id.
func (s *Todos) Delete(ctx context.Context, user *models.User, id uint) error {
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		return tx.Todos(user.ID).Delete(ctx, id)
	})
	if err != nil {
		return failed(err, "Failed to delete todo")
	}
	s.stats.Invalidate(ctx, user.ID)
	return nil
}

// Stats summarizes the user's todos, served from cache when possible.
func (s *Todos) Stats(ctx context.Context, user *models.User) (models.TodoStats, error) {
	stats, err := s.stats.GetOrLoad(ctx, user.ID, func(ctx context.Context) (models.TodoStats, error) {
		var stats models.TodoStats
		err := s.store.WithTx(ctx, func(tx *repository.Store) error {
			var err error
			stats, err = tx.Todos(user.ID).Stats(ctx, s.now())
			return err
		})
		return stats, err
	})
	if err != nil {
		return models.TodoStats{}, failed(err, "Failed to get statistics")
	}
	return stats, nil
}

// ParseDueDate parses an ISO-8601 date or datetime. A trailing Z or an
// offset is honoured; anything without a zone is UTC.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range dueDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
