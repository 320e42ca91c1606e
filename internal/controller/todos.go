package controller

import (
	"net/http"
	"strconv"

	"todoapp/internal/apperr"
	"todoapp/internal/middleware"
	"todoapp/internal/service"

	"github.com/gin-gonic/gin"
)

var errTodoNotFound = apperr.NotFound("Todo not found")

type TodoHandler struct {
	todos *service.Todos
}

func NewTodoHandler(todos *service.Todos) *TodoHandler {
	return &TodoHandler{todos: todos}
}

// List (auth): ?page&per_page&completed&priority&search.
func (h *TodoHandler) List(c *gin.Context) {
	q := service.ListQuery{
		Page:     queryInt(c, "page", 1),
		PerPage:  queryInt(c, "per_page", 10),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	}
	if v, ok := c.GetQuery("completed"); ok {
		q.Completed = &v
	}
	page, err := h.todos.List(c.Request.Context(), middleware.CurrentUser(c), q)
	if err != nil {
		respondError(c, err, "Failed to get todos")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create (auth): returns 201 with the stored todo.
func (h *TodoHandler) Create(c *gin.Context) {
	var body service.NewTodo
	if err := bindJSON(c, &body); err != nil {
		respondError(c, err, "Failed to create todo")
		return
	}
	todo, err := h.todos.Create(c.Request.Context(), middleware.CurrentUser(c), body)
	if err != nil {
		respondError(c, err, "Failed to create todo")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Todo created successfully", "todo": todo})
}

func (h *TodoHandler) Get(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		respondError(c, errTodoNotFound, "")
		return
	}
	todo, err := h.todos.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err, "Failed to get todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// Update (auth): partial patch, only fields present in the body apply.
func (h *TodoHandler) Update(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		respondError(c, errTodoNotFound, "")
		return
	}
	var patch service.TodoPatch
	if err := bindJSON(c, &patch); err != nil {
		respondError(c, err, "Failed to update todo")
		return
	}
	todo, err := h.todos.Update(c.Request.Context(), middleware.CurrentUser(c), id, patch)
	if err != nil {
		respondError(c, err, "Failed to update todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo updated successfully", "todo": todo})
}

func (h *TodoHandler) Delete(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		respondError(c, errTodoNotFound, "")
		return
	}
	if err := h.todos.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, err, "Failed to delete todo")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Todo deleted successfully"})
}

func (h *TodoHandler) Stats(c *gin.Context) {
	stats, err := h.todos.Stats(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err, "Failed to get statistics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// todoID parses the :id path segment; only positive integers name a todo.
func todoID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 63)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, using def when absent or malformed.
func queryInt(c *gin.Context, key string, def int) int {
	v, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
