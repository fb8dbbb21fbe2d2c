package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/comment-board/backend/internal/config"
	"github.com/emilythestrangee/comment-board/backend/internal/handlers"
	"github.com/emilythestrangee/comment-board/backend/internal/middleware"
)

// HealthChecker reports the state of a backing service.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	cfg      *config.Config
	handler  *handlers.Handler
	db       HealthChecker
	verifier middleware.TokenVerifier
	limiter  *middleware.RateLimiter
}

func NewServer(cfg *config.Config, handler *handlers.Handler, db HealthChecker, verifier middleware.TokenVerifier, limiter *middleware.RateLimiter) *Server {
	return &Server{cfg: cfg, handler: handler, db: db, verifier: verifier, limiter: limiter}
}

// HTTPServer wraps the router in an http.Server listening on the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	if s.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	r.GET("/health", s.health)

	// Auth routes (public)
	r.POST("/register", s.handler.Auth.Register)
	r.POST("/login", s.handler.Auth.Login)

	// Protected routes (authentication required)
	protected := r.Group("")
	protected.Use(middleware.AuthMiddleware(s.verifier))
	{
		protected.GET("/me", s.handler.Auth.GetMe)

		protected.GET("/comments", s.handler.Comment.GetComments)
		protected.GET("/comments/:id", s.handler.Comment.GetComment)

		limited := protected.Group("")
		if s.limiter != nil {
			limited.Use(s.limiter.Middleware())
		}
		limited.POST("/comments", s.handler.Comment.CreateComment)
		limited.PUT("/comments/:id", s.handler.Comment.UpdateComment)
		limited.DELETE("/comments/:id", s.handler.Comment.DeleteComment)
		limited.POST("/comments/:id/vote", s.handler.Comment.VoteComment)
	}

	return r
}

func (s *Server) health(c *gin.Context) {
	resp := gin.H{"message": "API is running"}
	if s.db == nil {
		c.JSON(http.StatusOK, resp)
		return
	}

	stats := s.db.Health(c.Request.Context())
	resp["database"] = stats
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
