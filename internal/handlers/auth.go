package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-board/backend/internal/auth"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/middleware"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
	"github.com/emilythestrangee/comment-board/backend/internal/validation"
)

type AuthHandler struct {
	users     UserService
	tokens    TokenIssuer
	validator *validation.Validator
	logger    logging.Logger
}

func NewAuthHandler(users UserService, tokens TokenIssuer, v *validation.Validator, logger logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, validator: v, logger: logger.With("handler", "auth")}
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := h.tokens.IssueToken(auth.Identity{ID: user.ID, Username: user.Username})
	if err != nil {
		respondError(c, h.logger, "issue token", err)
		return
	}
	c.JSON(status, models.AuthResponse{Token: token, User: *user})
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Missing required fields")
		return
	}
	if err := h.validator.ValidateRegister(&input); err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), input.Username, input.Email, input.Password)
	if err != nil {
		respondError(c, h.logger, "register", err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user)
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "Missing required fields")
		return
	}
	if err := h.validator.ValidateLogin(&input); err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		respondError(c, h.logger, "login", err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user)
}

// GetMe returns the current authenticated user
func (h *AuthHandler) GetMe(c *gin.Context) {
	id, ok := middleware.Identity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.users.Get(c.Request.Context(), id.ID)
	if err != nil {
		status, msg := statusFor(err)
		if status == http.StatusNotFound {
			msg = "User not found"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, user)
}
