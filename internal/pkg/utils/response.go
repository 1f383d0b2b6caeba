package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nicuwatch/nicudash/internal/pkg/errors"
)

// SuccessResponse represents a successful API response
type SuccessResponse struct {
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
	Meta  ErrorMeta   `json:"meta"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorMeta is attached to every error body
type ErrorMeta struct {
	Timestamp time.Time `json:"timestamp"`
}

// now is replaced in tests
var now = func() time.Time { return time.Now().UTC() }

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes data with optional meta
func WriteSuccess(w http.ResponseWriter, status int, data interface{}, meta interface{}) error {
	return WriteJSON(w, status, SuccessResponse{
		Data: data,
		Meta: meta,
	})
}

// WriteSuccessWithMessage writes data with a human-readable message and meta
func WriteSuccessWithMessage(w http.ResponseWriter, status int, message string, data interface{}, meta interface{}) error {
	return WriteJSON(w, status, SuccessResponse{
		Data:    data,
		Message: message,
		Meta:    meta,
	})
}

// WriteError writes an error JSON response from AppError
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	return WriteJSON(w, err.StatusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
		Meta: ErrorMeta{Timestamp: now()},
	})
}

// WriteErrorMessage writes a simple error message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) error {
	return WriteError(w, errors.New(code, message, status))
}
