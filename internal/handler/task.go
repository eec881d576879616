package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"daily-tracker/internal/model"
	"daily-tracker/internal/service"
)

type createTaskRequest struct {
	UserID string `json:"userId"`
	service.TaskInput
}

// ListTasks returns one board column, todo by default. ?upcoming=true lists
// open tasks due within 24 hours; ?priority= lists open tasks of a priority.
// GET /v1/tasks?userId=&status=&priority=&upcoming=
func (h *Handler) ListTasks(ctx context.Context, c *app.RequestContext) {
	userID := c.Query("userId")

	var (
		tasks []model.Task
		err   error
	)
	switch {
	case c.Query("upcoming") == "true":
		tasks, err = h.tasks.ListUpcoming(ctx, userID)
	case c.Query("priority") != "":
		tasks, err = h.tasks.ListByPriority(ctx, userID, model.TaskPriority(c.Query("priority")))
	default:
		status := model.TaskStatus(c.DefaultQuery("status", string(model.TaskStatusTodo)))
		tasks, err = h.tasks.ListByStatus(ctx, userID, status)
	}
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, tasks)
}

// POST /v1/tasks
func (h *Handler) CreateTask(ctx context.Context, c *app.RequestContext) {
	var req createTaskRequest
	if err := c.BindJSON(&req); err != nil {
		BindError(ctx, c, err)
		return
	}
	task, err := h.tasks.CreateTask(ctx, req.UserID, req.TaskInput)
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Created(ctx, c, task)
}

// GET /v1/tasks/:id?userId=
func (h *Handler) GetTask(ctx context.Context, c *app.RequestContext) {
	task, err := h.tasks.GetTask(ctx, c.Query("userId"), c.Param("id"))
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, task)
}

// PATCH /v1/tasks/:id?userId=
func (h *Handler) UpdateTask(ctx context.Context, c *app.RequestContext) {
	var patch service.TaskPatch
	if err := c.BindJSON(&patch); err != nil {
		BindError(ctx, c, err)
		return
	}
	task, err := h.tasks.UpdateTask(ctx, c.Query("userId"), c.Param("id"), patch)
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, task)
}

// DELETE /v1/tasks/:id?userId=
func (h *Handler) DeleteTask(ctx context.Context, c *app.RequestContext) {
	if err := h.tasks.DeleteTask(ctx, c.Query("userId"), c.Param("id")); err != nil {
		Error(ctx, c, err)
		return
	}
	NoContent(ctx, c)
}
