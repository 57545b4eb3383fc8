package helpers

import "net/http"

// AppError is the request-terminating error taxonomy. Every handler stops
// at the first failure and maps the error to exactly one response.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func Validation(message string) *AppError {
	return &AppError{Status: http.StatusUnprocessableEntity, Message: message}
}

func Unauthenticated(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: message}
}

func Unauthorized(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

// Internal hides store and relay failures behind a generic message;
// the original cause is logged at the call site, never exposed.
func Internal() *AppError {
	return &AppError{
		Status:  http.StatusInternalServerError,
		Message: "there was a problem processing your request, please try again later",
	}
}
