package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"daily-tracker/internal/service"
)

// Handler exposes the services over HTTP.
type Handler struct {
	tasks     *service.TaskService
	logs      *service.LogService
	lifestyle *service.LifestyleService
	recurring *service.RecurringService
	perf      *service.PerformanceService
	log       *zap.Logger
}

func New(
	tasks *service.TaskService,
	logs *service.LogService,
	lifestyle *service.LifestyleService,
	recurring *service.RecurringService,
	perf *service.PerformanceService,
	log *zap.Logger,
) *Handler {
	return &Handler{
		tasks:     tasks,
		logs:      logs,
		lifestyle: lifestyle,
		recurring: recurring,
		perf:      perf,
		log:       log.Named("http"),
	}
}

// userRequest is the body of every endpoint that acts on "today" for a user.
type userRequest struct {
	UserID string `json:"userId"`
}

// Health
// GET /health
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	Success(ctx, c, map[string]string{"status": "ok"})
}
