package router

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/route"
	"go.uber.org/zap"

	"daily-tracker/internal/handler"
)

func Register(r *route.Engine, h *handler.Handler, log *zap.Logger) {
	r.Use(accessLog(log.Named("access")))

	r.GET("/health", h.Health)

	v1 := r.Group("/v1")

	logs := v1.Group("/logs")
	{
		logs.POST("/wakeup", h.LogWakeUp)
		logs.POST("/sleep", h.LogSleep)
		logs.POST("/work-start", h.LogWorkStart)
		logs.POST("/work-end", h.LogWorkEnd)
		logs.GET("/today", h.GetDailyLog)
	}

	v1.POST("/recurring/process", h.ProcessRecurring)

	analytics := v1.Group("/analytics")
	{
		analytics.GET("/metrics", h.GetMetrics)
		analytics.GET("/daily", h.GetDailyPerformance)
	}

	tasks := v1.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("", h.CreateTask)
		tasks.GET("/:id", h.GetTask)
		tasks.PATCH("/:id", h.UpdateTask)
		tasks.DELETE("/:id", h.DeleteTask)
	}

	v1.POST("/meals", h.CreateMeal)
	v1.POST("/sleep", h.CreateSleep)
	v1.POST("/water", h.CreateWater)
	v1.POST("/schedules", h.CreateSchedule)
	v1.GET("/plan", h.GetDayPlan)
}

func accessLog(log *zap.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		log.Debug("request",
			zap.ByteString("method", c.Method()),
			zap.ByteString("path", c.Path()),
			zap.Int("status", c.Response.StatusCode()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
