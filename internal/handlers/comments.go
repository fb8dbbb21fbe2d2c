package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/middleware"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
	"github.com/emilythestrangee/comment-board/backend/internal/validation"
)

type CommentHandler struct {
	comments  CommentService
	votes     VoteService
	validator *validation.Validator
	sanitizer Sanitizer
	logger    logging.Logger
}

func NewCommentHandler(comments CommentService, votes VoteService, v *validation.Validator, s Sanitizer, logger logging.Logger) *CommentHandler {
	return &CommentHandler{
		comments:  comments,
		votes:     votes,
		validator: v,
		sanitizer: s,
		logger:    logger.With("handler", "comments"),
	}
}

func (h *CommentHandler) sanitize(raw string) string {
	if h.sanitizer == nil {
		return raw
	}
	return h.sanitizer.Sanitize(raw)
}

func commentID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, common.NewValidationError("id", "must be a positive integer")
	}
	return uint(id), nil
}

func currentUser(c *gin.Context) (uint, bool) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return id.ID, true
}

// GetComments returns every top-level comment with its replies
func (h *CommentHandler) GetComments(c *gin.Context) {
	comments, err := h.comments.ListTopLevel(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "list comments", err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// GetComment returns a single comment with its replies
func (h *CommentHandler) GetComment(c *gin.Context) {
	id, err := commentID(c)
	if err != nil {
		respondError(c, h.logger, "get comment", err)
		return
	}

	comment, err := h.comments.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, "get comment", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// CreateComment creates a top-level comment or a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	authorID, ok := currentUser(c)
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := h.validator.ValidateCreate(&input); err != nil {
		respondError(c, h.logger, "create comment", err)
		return
	}

	var replyingTo *string
	if input.ReplyingTo != nil {
		label := h.sanitize(*input.ReplyingTo)
		replyingTo = &label
	}

	comment, err := h.comments.Create(c.Request.Context(), authorID, h.sanitize(input.Content), input.ParentID, replyingTo)
	if err != nil {
		respondError(c, h.logger, "create comment", err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// UpdateComment updates a comment (owner only)
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := commentID(c)
	if err != nil {
		respondError(c, h.logger, "update comment", err)
		return
	}

	var input models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := h.validator.ValidateUpdate(&input); err != nil {
		respondError(c, h.logger, "update comment", err)
		return
	}

	comment, err := h.comments.Update(c.Request.Context(), id, userID, h.sanitize(input.Content))
	if err != nil {
		respondError(c, h.logger, "update comment", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment deletes a comment and its thread (owner only)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := commentID(c)
	if err != nil {
		respondError(c, h.logger, "delete comment", err)
		return
	}

	if err := h.comments.Delete(c.Request.Context(), id, userID); err != nil {
		respondError(c, h.logger, "delete comment", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// VoteComment records an up or down vote by the current user
func (h *CommentHandler) VoteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, err := commentID(c)
	if err != nil {
		respondError(c, h.logger, "vote", err)
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := h.validator.ValidateVote(&input); err != nil {
		respondError(c, h.logger, "vote", err)
		return
	}

	comment, err := h.votes.ApplyVote(c.Request.Context(), id, userID, input.Vote)
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateVote) {
			err = withMessage(err, fmt.Sprintf("You already voted %s on this comment", input.Vote))
		}
		respondError(c, h.logger, "vote", err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
