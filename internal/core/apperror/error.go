// Package apperror provides structured error handling for the stock platform.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by concern
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeInsufficientStockAtDate = "INSUFFICIENT_STOCK_AT_DATE"
	CodeInsufficientBatchStock  = "INSUFFICIENT_BATCH_STOCK"
	CodeBatchInUse              = "BATCH_IN_USE"
	CodeDerivedMovement         = "DERIVED_MOVEMENT"
	CodeInconsistentBalance     = "INCONSISTENT_BALANCE"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements the error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInsufficientStock is returned when a consumption exceeds the current
// balance of a stream. Always carries requested vs available for display.
func NewInsufficientStock(stream string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"stream":    stream,
			"requested": requested,
			"available": available,
		},
	}
}

// NewInsufficientStockAtDate is returned when a dated operation exceeds the
// balance as of its business date, regardless of the current balance.
func NewInsufficientStockAtDate(stream, date string, requested, available float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStockAtDate,
		Message:    fmt.Sprintf("Insufficient stock as of %s", date),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"stream":    stream,
			"asOf":      date,
			"requested": requested,
			"available": available,
		},
	}
}

// NewInsufficientBatchStock is returned when a consumption exceeds the
// remaining capacity of one inward batch.
func NewInsufficientBatchStock(batchID string, requested, remaining float64) *AppError {
	return &AppError{
		Code:       CodeInsufficientBatchStock,
		Message:    fmt.Sprintf("Batch %s has insufficient remaining stock", batchID),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"batchId":   batchID,
			"requested": requested,
			"available": remaining,
		},
	}
}

// NewBatchInUse is returned when deleting a batch that production runs
// already consumed from.
func NewBatchInUse(batchID string) *AppError {
	return &AppError{
		Code:       CodeBatchInUse,
		Message:    fmt.Sprintf("Batch %s has production entries and cannot be deleted", batchID),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"batchId": batchID},
	}
}

// NewDerivedMovement is returned when deleting a movement that only its
// owning document may remove.
func NewDerivedMovement(movementID int64, docRef string) *AppError {
	return &AppError{
		Code:       CodeDerivedMovement,
		Message:    "Movement belongs to a production entry. Delete the production entry instead.",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"movementId": movementID, "reference": docRef},
	}
}

// NewInconsistentBalance signals that a ledger invariant could not be
// restored. Should never trigger in correct operation.
func NewInconsistentBalance(stream string, detail string) *AppError {
	return &AppError{
		Code:       CodeInconsistentBalance,
		Message:    fmt.Sprintf("Ledger for %s is inconsistent: %s", stream, detail),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"stream": stream},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == CodeNotFound
	}
	return false
}

// HasCode checks if error carries the given code
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
