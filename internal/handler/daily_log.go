package handler

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/model"
)

type wakeUpResponse struct {
	Log                *model.DailyLog `json:"log"`
	RecurringProcessed bool            `json:"recurringProcessed"`
}

// LogWakeUp records the wake-up time and then materializes today's
// recurring items. A failed processing run does not undo the log entry.
// POST /v1/logs/wakeup
func (h *Handler) LogWakeUp(ctx context.Context, c *app.RequestContext) {
	var req userRequest
	if err := c.BindJSON(&req); err != nil {
		BindError(ctx, c, err)
		return
	}
	entry, err := h.logs.LogWakeUp(ctx, req.UserID)
	if err != nil {
		Error(ctx, c, err)
		return
	}

	resp := wakeUpResponse{Log: entry, RecurringProcessed: true}
	if err := h.recurring.ProcessRecurringTasks(ctx, req.UserID); err != nil {
		resp.RecurringProcessed = false
		if !errors.Is(err, apperr.ProcessingInProgress) {
			h.log.Warn("process after wake-up", zap.String("user_id", req.UserID), zap.Error(err))
		}
	}
	Success(ctx, c, resp)
}

// POST /v1/logs/sleep
func (h *Handler) LogSleep(ctx context.Context, c *app.RequestContext) {
	h.logEvent(ctx, c, h.logs.LogSleep)
}

// POST /v1/logs/work-start
func (h *Handler) LogWorkStart(ctx context.Context, c *app.RequestContext) {
	h.logEvent(ctx, c, h.logs.LogWorkStart)
}

// POST /v1/logs/work-end
func (h *Handler) LogWorkEnd(ctx context.Context, c *app.RequestContext) {
	h.logEvent(ctx, c, h.logs.LogWorkEnd)
}

// GetDailyLog returns the log of ?date (today when empty).
// GET /v1/logs/today?userId=&date=
func (h *Handler) GetDailyLog(ctx context.Context, c *app.RequestContext) {
	entry, err := h.logs.GetDailyLog(ctx, c.Query("userId"), c.Query("date"))
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, entry)
}

func (h *Handler) logEvent(ctx context.Context, c *app.RequestContext, record func(context.Context, string) (*model.DailyLog, error)) {
	var req userRequest
	if err := c.BindJSON(&req); err != nil {
		BindError(ctx, c, err)
		return
	}
	entry, err := record(ctx, req.UserID)
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, entry)
}
