package httpx

import (
	"errors"
	"net/http"
	"runtime/debug"
)

// Error carries the HTTP status a handler selected for a failure together
// with the client-facing message. Handlers raise it anywhere below the
// HTTP layer; RespondError converts it at the boundary.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds an Error with an explicit status.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// BadRequest builds a 400 error.
func BadRequest(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// Unauthorized builds a 401 error.
func Unauthorized(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

// NotFound builds a 404 error.
func NotFound(message string) *Error {
	return NewError(http.StatusNotFound, message)
}

// Conflict builds a 409 error.
func Conflict(message string) *Error {
	return NewError(http.StatusConflict, message)
}

// Internal builds a 500 error.
func Internal(message string) *Error {
	return NewError(http.StatusInternalServerError, message)
}

// ErrorBody is the JSON error contract. Stack is only populated outside
// production operation.
type ErrorBody struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// RespondError converts an error raised inside a handler into the JSON
// error body. Unknown errors default to 500 with a generic message.
func RespondError(w http.ResponseWriter, err error, includeStack bool) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var herr *Error
	if errors.As(err, &herr) {
		status = herr.Status
		message = herr.Message
	}

	body := ErrorBody{Message: message}
	if includeStack {
		body.Stack = string(debug.Stack())
	}
	JSON(w, status, body)
}
