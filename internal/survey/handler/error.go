package handler

import (
	"errors"
	"net/http"

	"surveydir/internal/survey/model"
	"surveydir/internal/survey/service"
	"surveydir/internal/survey/workflow"
)

// Helper to map errors to HTTP status and body. Permission and transition
// failures keep their context message so the caller can see which
// relationship or state was required.
func httpError(err error) (int, interface{}) {
	var code string
	var msg string
	var status int

	var permErr *service.PermissionError
	var guardErr *workflow.GuardError
	var transErr *workflow.TransitionError
	var valErr *workflow.ValidationError
	var detail *model.ErrorDetail

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
		code = "unauthorized"
		msg = "Unauthorized"
	case errors.As(err, &permErr), errors.As(err, &guardErr):
		status = http.StatusForbidden
		code = "forbidden"
		msg = err.Error()
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
		code = "forbidden"
		msg = "Permission denied"
	case errors.As(err, &transErr):
		status = http.StatusConflict
		code = "invalid_transition"
		msg = err.Error()
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
		code = "conflict"
		msg = "Survey was modified concurrently, retry"
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		code = "not_found"
		msg = "Record not found"
	case errors.As(err, &valErr):
		status = http.StatusBadRequest
		code = "validation_failed"
		msg = err.Error()
	case errors.As(err, &detail):
		status = http.StatusBadRequest
		code = detail.Code
		msg = detail.Message
	case errors.Is(err, service.ErrBadRequest):
		status = http.StatusBadRequest
		code = "bad_request"
		msg = "Invalid input"
	default:
		status = http.StatusInternalServerError
		code = "internal_error"
		msg = err.Error()
	}

	return status, model.ErrorResponse{
		Error: model.ErrorDetail{Code: code, Message: msg},
	}
}
