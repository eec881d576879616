package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"

	"daily-tracker/internal/apperr"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SuccessResponse struct {
	Data any `json:"data"`
}

func errorToHTTPStatus(err error) int {
	switch apperr.Kind(err) {
	case "INVALID_REQUEST":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "PROCESSING_IN_PROGRESS":
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error writes err as {"error": {...}}. Business errors keep their message;
// anything else is logged and reported as an internal error.
func Error(ctx context.Context, c *app.RequestContext, err error) {
	status := errorToHTTPStatus(err)

	var def apperr.Definition
	if !errors.As(err, &def) {
		hlog.CtxErrorf(ctx, "%s %s: %v", c.Method(), c.Path(), err)
		def = apperr.Definition{Code: "INTERNAL_ERROR", Message: "Internal error"}
	}
	c.JSON(status, ErrorResponse{Error: ErrorDetail{Code: def.Code, Message: def.Message}})
}

func BindError(ctx context.Context, c *app.RequestContext, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    apperr.InvalidRequest.Code,
			Message: err.Error(),
		},
	})
}

func Success(ctx context.Context, c *app.RequestContext, data any) {
	c.JSON(http.StatusOK, SuccessResponse{Data: data})
}

func Created(ctx context.Context, c *app.RequestContext, data any) {
	c.JSON(http.StatusCreated, SuccessResponse{Data: data})
}

func NoContent(ctx context.Context, c *app.RequestContext) {
	c.Status(http.StatusNoContent)
}
