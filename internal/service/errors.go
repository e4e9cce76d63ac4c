package service

import "net/http"

// Error codes returned to API clients
const (
	CodeUnauthorized   = "unauthorized"
	CodePostNotFound   = "post_not_found"
	CodeCommentsClosed = "comments_closed"
	CodeInvalidParent  = "invalid_parent"
	CodeMissingFields  = "missing_fields"
	CodeInvalidEmail   = "invalid_email"
	CodeSpamDetected   = "spam_detected"
	CodeCommentFailed  = "comment_failed"
	CodeInternalError  = "internal_error"
)

// APIError is an error surfaced to the caller with a stable code and HTTP status
type APIError struct {
	Code    string
	Message string
	Status  int
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Errors of the request taxonomy. They are shared values; compare with errors.Is.
var (
	ErrUnauthorized   = &APIError{Code: CodeUnauthorized, Message: "Invalid API key", Status: http.StatusUnauthorized}
	ErrPostNotFound   = &APIError{Code: CodePostNotFound, Message: "Post not found", Status: http.StatusNotFound}
	ErrCommentsClosed = &APIError{Code: CodeCommentsClosed, Message: "Comments are closed for this post", Status: http.StatusForbidden}
	ErrInvalidParent  = &APIError{Code: CodeInvalidParent, Message: "Invalid parent comment", Status: http.StatusBadRequest}
	ErrMissingFields  = &APIError{Code: CodeMissingFields, Message: "Name, email, and comment content are required", Status: http.StatusBadRequest}
	ErrInvalidEmail   = &APIError{Code: CodeInvalidEmail, Message: "Invalid email address", Status: http.StatusBadRequest}
	ErrSpamDetected   = &APIError{Code: CodeSpamDetected, Message: "Your comment has been identified as spam and cannot be posted.", Status: http.StatusBadRequest}
	ErrCommentFailed  = &APIError{Code: CodeCommentFailed, Message: "Failed to submit comment", Status: http.StatusInternalServerError}
	ErrLoadFailed     = &APIError{Code: CodeInternalError, Message: "Failed to load comments", Status: http.StatusInternalServerError}
	ErrSettings       = &APIError{Code: CodeInternalError, Message: "Settings unavailable", Status: http.StatusInternalServerError}
	ErrInternal       = &APIError{Code: CodeInternalError, Message: "Internal server error", Status: http.StatusInternalServerError}
)
