package http

import (
	"fmt"
	"net/http"
)

// Error codes returned in AppError.Code.
const (
	CodeUnknownSeries = "ERR_UNKNOWN_SERIES"
	CodeNoData        = "ERR_NO_DATA"
	CodeInvalidRange  = "ERR_INVALID_RANGE"
	CodeJobsDisabled  = "ERR_JOBS_DISABLED"
)

// AppError is an error carrying its HTTP status and a stable code for clients.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error.
func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithParam sets a single error param.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

// WithError wraps an underlying error. It is never serialized.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// UnknownSeriesError is the 404 for a SeriesID outside the catalog.
func UnknownSeriesError(id string) *AppError {
	return NewAppError(CodeUnknownSeries, "id", fmt.Sprintf("unknown series %q", id), http.StatusNotFound).
		WithParam("id", id)
}

// NoDataError is the 404 for an engine run with nothing to compute on.
func NoDataError(message string) *AppError {
	return NewAppError(CodeNoData, "", message, http.StatusNotFound)
}

// InvalidRangeError is the 400 for from > to.
func InvalidRangeError(from, to string) *AppError {
	return NewAppError(CodeInvalidRange, "from", "from must not be after to", http.StatusBadRequest).
		WithParam("from", from).
		WithParam("to", to)
}

// JobsDisabledError is the 503 returned when no job backend is configured.
func JobsDisabledError() *AppError {
	return NewAppError(CodeJobsDisabled, "", "job backend disabled", http.StatusServiceUnavailable)
}
