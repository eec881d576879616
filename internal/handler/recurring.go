package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
)

// ProcessRecurring materializes today's recurring items for the user.
// POST /v1/recurring/process
func (h *Handler) ProcessRecurring(ctx context.Context, c *app.RequestContext) {
	var req userRequest
	if err := c.BindJSON(&req); err != nil {
		BindError(ctx, c, err)
		return
	}
	if err := h.recurring.ProcessRecurringTasks(ctx, req.UserID); err != nil {
		Error(ctx, c, err)
		return
	}
	Success(ctx, c, map[string]bool{"processed": true})
}
