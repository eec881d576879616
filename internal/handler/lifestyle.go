package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"

	"daily-tracker/internal/model"
)

// POST /v1/meals
func (h *Handler) CreateMeal(ctx context.Context, c *app.RequestContext) {
	var meal model.Meal
	if err := c.BindJSON(&meal); err != nil {
		BindError(ctx, c, err)
		return
	}
	created, err := h.lifestyle.CreateMeal(ctx, meal)
	respondCreated(ctx, c, created, err)
}

// POST /v1/sleep
func (h *Handler) CreateSleep(ctx context.Context, c *app.RequestContext) {
	var sleep model.Sleep
	if err := c.BindJSON(&sleep); err != nil {
		BindError(ctx, c, err)
		return
	}
	created, err := h.lifestyle.CreateSleep(ctx, sleep)
	respondCreated(ctx, c, created, err)
}

// POST /v1/water
func (h *Handler) CreateWater(ctx context.Context, c *app.RequestContext) {
	var water model.WaterIntake
	if err := c.BindJSON(&water); err != nil {
		BindError(ctx, c, err)
		return
	}
	created, err := h.lifestyle.CreateWater(ctx, water)
	respondCreated(ctx, c, created, err)
}

// POST /v1/schedules
func (h *Handler) CreateSchedule(ctx context.Context, c *app.RequestContext) {
	var item model.ScheduleItem
	if err := c.BindJSON(&item); err != nil {
		BindError(ctx, c, err)
		return
	}
	created, err := h.lifestyle.CreateSchedule(ctx, item)
	respondCreated(ctx, c, created, err)
}

// GetDayPlan lists the meals and schedule items of ?date (today when empty).
// GET /v1/plan?userId=&date=
func (h *Handler) GetDayPlan(ctx context.Context, c *app.RequestContext) {
	plan, err := h.lifestyle.DayPlan(ctx, c.Query("userId"), c.Query("date"))
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, plan)
}

func respondCreated(ctx context.Context, c *app.RequestContext, data any, err error) {
	if err != nil {
		Error(ctx, c, err)
		return
	}
	Created(ctx, c, data)
}
