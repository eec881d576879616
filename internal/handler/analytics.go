package handler

import (
	"context"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"

	"daily-tracker/internal/apperr"
)

type dailyPerformanceResponse struct {
	Date  string  `json:"date,omitempty"`
	Score float64 `json:"score"`
}

// GET /v1/analytics/metrics?userId=&days=
func (h *Handler) GetMetrics(ctx context.Context, c *app.RequestContext) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(ctx, c, apperr.InvalidRequest.WithMessage("days must be a positive integer"))
			return
		}
		days = n
	}
	metrics, err := h.perf.CalculatePerformanceMetrics(ctx, c.Query("userId"), days)
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, metrics)
}

// GET /v1/analytics/daily?userId=&date=
func (h *Handler) GetDailyPerformance(ctx context.Context, c *app.RequestContext) {
	date := c.Query("date")
	score, err := h.perf.CalculateDailyPerformance(ctx, c.Query("userId"), date)
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, dailyPerformanceResponse{Date: date, Score: score})
}
