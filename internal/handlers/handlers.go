package handlers

import (
	"context"

	"github.com/emilythestrangee/comment-board/backend/internal/auth"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
	"github.com/emilythestrangee/comment-board/backend/internal/validation"
)

type CommentService interface {
	Create(ctx context.Context, authorID uint, content string, parentID *uint, replyingTo *string) (*models.Comment, error)
	Get(ctx context.Context, id uint) (*models.Comment, error)
	ListTopLevel(ctx context.Context) ([]models.Comment, error)
	Update(ctx context.Context, id, requesterID uint, content string) (*models.Comment, error)
	Delete(ctx context.Context, id, requesterID uint) error
}

type VoteService interface {
	ApplyVote(ctx context.Context, commentID, voterID uint, direction models.Direction) (*models.Comment, error)
}

type UserService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	Get(ctx context.Context, id uint) (*models.User, error)
}

type TokenIssuer interface {
	IssueToken(id auth.Identity) (string, error)
}

type Sanitizer interface {
	Sanitize(raw string) string
}

// Deps are the components the HTTP surface is built from.
type Deps struct {
	Comments  CommentService
	Votes     VoteService
	Users     UserService
	Tokens    TokenIssuer
	Validator *validation.Validator
	Sanitizer Sanitizer
	Logger    logging.Logger
}

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Comment *CommentHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Validator == nil {
		d.Validator = validation.New()
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	return &Handler{
		Auth:    NewAuthHandler(d.Users, d.Tokens, d.Validator, d.Logger),
		Comment: NewCommentHandler(d.Comments, d.Votes, d.Validator, d.Sanitizer, d.Logger),
	}
}
