package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
)

// messageError replaces the client-facing message of err without changing
// how it maps to a status.
type messageError struct {
	err error
	msg string
}

func (e *messageError) Error() string { return e.err.Error() }
func (e *messageError) Unwrap() error { return e.err }

func withMessage(err error, msg string) error {
	return &messageError{err: err, msg: msg}
}

// statusFor maps the shared error taxonomy onto HTTP status codes and
// client-facing messages. Wrapped driver details never leave the process.
func statusFor(err error) (int, string) {
	status, msg := classifyStatus(err)

	var me *messageError
	if errors.As(err, &me) && status < http.StatusInternalServerError {
		msg = me.msg
	}
	return status, msg
}

func classifyStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, common.ErrorUnauthenticated):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, "Not authorized to modify this comment"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "Comment not found"
	case errors.Is(err, common.ErrorDuplicateVote):
		return http.StatusBadRequest, "You already voted this way on this comment"
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, "Username or email already exists"
	case errors.Is(err, common.ErrorStorage):
		return http.StatusServiceUnavailable, "Service temporarily unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(c *gin.Context, logger logging.Logger, action string, err error) {
	status, msg := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), action+" failed", "error", err, "path", c.FullPath())
	}

	var ve *common.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		c.JSON(status, gin.H{"error": msg, "details": ve.Fields})
		return
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
