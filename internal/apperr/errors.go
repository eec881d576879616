package apperr

import "errors"

// Definition is a business error with a stable code.
type Definition struct {
	Code    string
	Message string
}

func (d Definition) Error() string {
	return d.Message
}

// WithMessage keeps the code and replaces the message.
func (d Definition) WithMessage(msg string) Definition {
	return Definition{Code: d.Code, Message: msg}
}

// Is matches by code so that WithMessage variants still satisfy errors.Is.
func (d Definition) Is(target error) bool {
	var other Definition
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == d.Code
}

var (
	InvalidRequest       = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	UserIDRequired       = Definition{Code: "INVALID_REQUEST", Message: "User ID is required"}
	NotFound             = Definition{Code: "NOT_FOUND", Message: "Not found"}
	TaskNotFound         = Definition{Code: "NOT_FOUND", Message: "Task not found"}
	ProcessingInProgress = Definition{Code: "PROCESSING_IN_PROGRESS", Message: "Recurring items are already being processed"}
)

// Kind reports the stable code of err, or INTERNAL_ERROR.
func Kind(err error) string {
	var def Definition
	if errors.As(err, &def) {
		return def.Code
	}
	return "INTERNAL_ERROR"
}
