package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/comment-board/backend/internal/auth"
	"github.com/emilythestrangee/comment-board/backend/internal/cache"
	"github.com/emilythestrangee/comment-board/backend/internal/config"
	"github.com/emilythestrangee/comment-board/backend/internal/database"
	"github.com/emilythestrangee/comment-board/backend/internal/handlers"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/middleware"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
	"github.com/emilythestrangee/comment-board/backend/internal/sanitize"
	"github.com/emilythestrangee/comment-board/backend/internal/store"
	"github.com/emilythestrangee/comment-board/backend/internal/testutil"
	"github.com/emilythestrangee/comment-board/backend/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, rateLimit int) *gin.Engine {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()

	db := testutil.NewDB(t)
	backend, err := cache.NewLRUBackend(64)
	require.NoError(t, err)
	logger := logging.Discard()
	c := cache.NewCoordinator(backend, logger)
	tokens := auth.NewJWTProvider("test-secret", time.Hour)

	limiter, err := middleware.NewRateLimiter(rateLimit, time.Hour)
	require.NoError(t, err)

	h := handlers.NewHandler(handlers.Deps{
		Comments:  store.NewCommentStore(db, c, logger, 0),
		Votes:     store.NewVoteLedger(db, c, logger, 0),
		Users:     store.NewUserStore(db, logger, 0),
		Tokens:    tokens,
		Validator: validation.New(),
		Sanitizer: sanitize.New(),
		Logger:    logger,
	})

	return NewServer(cfg, h, database.Wrap(db), tokens, limiter).RegisterRoutes()
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func register(t *testing.T, r http.Handler, username string) string {
	t.Helper()

	w := do(t, r, http.MethodPost, "/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[models.AuthResponse](t, w)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func createComment(t *testing.T, r http.Handler, token string, body gin.H) models.Comment {
	t.Helper()
	w := do(t, r, http.MethodPost, "/comments", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Comment](t, w)
}

func commentPath(id uint, suffix string) string {
	return fmt.Sprintf("/comments/%d%s", id, suffix)
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, 100)

	w := do(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "API is running")
	assert.Contains(t, w.Body.String(), `"status":"up"`)
}

func TestAuthFlow(t *testing.T) {
	r := newTestRouter(t, 100)

	token := register(t, r, "amyrobson")

	w := do(t, r, http.MethodPost, "/register", "", gin.H{
		"username": "amyrobson", "email": "other@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")

	w = do(t, r, http.MethodPost, "/register", "", gin.H{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"details"`)

	w = do(t, r, http.MethodPost, "/login", "", gin.H{"username": "amyrobson", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[models.AuthResponse](t, w)
	assert.Equal(t, "amyrobson", login.User.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(t, r, http.MethodPost, "/login", "", gin.H{"username": "amyrobson", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "amyrobson", decode[models.User](t, w).Username)

	w = do(t, r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCommentRoutesRequireAuth(t *testing.T) {
	r := newTestRouter(t, 100)

	for _, rt := range []struct{ method, path string }{
		{http.MethodGet, "/comments"},
		{http.MethodGet, "/comments/1"},
		{http.MethodPost, "/comments"},
		{http.MethodPut, "/comments/1"},
		{http.MethodDelete, "/comments/1"},
		{http.MethodPost, "/comments/1/vote"},
	} {
		w := do(t, r, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}
}

func TestVoteAndDeleteScenario(t *testing.T) {
	r := newTestRouter(t, 100)
	amy := register(t, r, "amyrobson")
	max := register(t, r, "maxblagun")

	c := createComment(t, r, amy, gin.H{"content": "hello"})
	assert.Equal(t, 0, c.Score)

	w := do(t, r, http.MethodPost, commentPath(c.ID, "/vote"), max, gin.H{"vote": "up"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[models.Comment](t, w).Score)

	w = do(t, r, http.MethodPost, commentPath(c.ID, "/vote"), max, gin.H{"vote": "up"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "You already voted up on this comment")

	w = do(t, r, http.MethodGet, commentPath(c.ID, ""), max, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Comment](t, w).Score)

	w = do(t, r, http.MethodPost, commentPath(c.ID, "/vote"), max, gin.H{"vote": "down"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, -1, decode[models.Comment](t, w).Score)

	w = do(t, r, http.MethodPost, commentPath(c.ID, "/vote"), max, gin.H{"vote": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, commentPath(c.ID, ""), amy, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, commentPath(c.ID, ""), amy, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Comment not found"}`, w.Body.String())
}

func TestUpdateScenario(t *testing.T) {
	r := newTestRouter(t, 100)
	amy := register(t, r, "amyrobson")
	max := register(t, r, "maxblagun")

	c := createComment(t, r, amy, gin.H{"content": "hello"})

	w := do(t, r, http.MethodPost, commentPath(c.ID, "/vote"), max, gin.H{"vote": "up"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPut, commentPath(c.ID, ""), max, gin.H{"content": "mine now"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodDelete, commentPath(c.ID, ""), max, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodPut, commentPath(c.ID, ""), amy, gin.H{"content": "hello again"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Comment](t, w)
	assert.Equal(t, "hello again", updated.Content)
	assert.Equal(t, 1, updated.Score)

	w = do(t, r, http.MethodGet, commentPath(c.ID, ""), amy, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello again", decode[models.Comment](t, w).Content)
}

func TestRepliesAndListing(t *testing.T) {
	r := newTestRouter(t, 100)
	amy := register(t, r, "amyrobson")
	max := register(t, r, "maxblagun")

	w := do(t, r, http.MethodGet, "/comments", amy, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	top := createComment(t, r, amy, gin.H{"content": "top"})
	reply := createComment(t, r, max, gin.H{"content": "reply", "parent_id": top.ID, "replying_to": "amyrobson"})
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, top.ID, *reply.ParentID)

	w = do(t, r, http.MethodPost, "/comments", max, gin.H{"content": "nested", "parent_id": reply.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/comments", amy, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Comment](t, w)
	require.Len(t, list, 1)
	require.Len(t, list[0].Replies, 1)
	assert.Equal(t, "maxblagun", list[0].Replies[0].User.Username)
}

func TestCreateValidationAndSanitizing(t *testing.T) {
	r := newTestRouter(t, 100)
	amy := register(t, r, "amyrobson")

	w := do(t, r, http.MethodPost, "/comments", amy, gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"content"`)

	w = do(t, r, http.MethodPost, "/comments", amy, gin.H{"content": string(make([]byte, 1001))})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c := createComment(t, r, amy, gin.H{"content": `nice<script>alert(1)</script>`})
	assert.Equal(t, "nice", c.Content)

	w = do(t, r, http.MethodPost, "/comments", amy, gin.H{"content": `<script>alert(1)</script>`})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/comments/abc", amy, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMutationsAreRateLimited(t *testing.T) {
	r := newTestRouter(t, 2)
	amy := register(t, r, "amyrobson")

	createComment(t, r, amy, gin.H{"content": "one"})
	createComment(t, r, amy, gin.H{"content": "two"})

	w := do(t, r, http.MethodPost, "/comments", amy, gin.H{"content": "three"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// reads are not limited
	w = do(t, r, http.MethodGet, "/comments", amy, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
