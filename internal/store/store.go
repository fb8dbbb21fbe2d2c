// Package store owns durable comment, vote and user state. Every mutation
// runs in a single transaction and invalidates the affected cache keys after
// it commits and before it returns.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/comment-board/backend/internal/cache"
	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
)

const DefaultTimeout = 5 * time.Second

// base carries the handles every store needs.
type base struct {
	db      *gorm.DB
	cache   *cache.Coordinator
	logger  logging.Logger
	timeout time.Duration
}

func newBase(db *gorm.DB, c *cache.Coordinator, logger logging.Logger, timeout time.Duration, component string) base {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return base{db: db, cache: c, logger: logger.With("component", component), timeout: timeout}
}

// withTimeout bounds a single store call.
func (b *base) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, b.timeout)
}

// classify maps gorm/driver errors onto the shared taxonomy. Domain errors
// pass through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorDuplicateVote),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrorUnauthenticated):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.ErrorNotFound
	default:
		return fmt.Errorf("%w: %w", common.ErrorStorage, err)
	}
}

// withThread preloads the author and the ordered replies of a comment.
func withThread(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.id ASC")
		}).
		Preload("Replies.User")
}

// threadKeys lists the cache keys whose snapshots embed comment c.
func threadKeys(c *models.Comment) []string {
	keys := []string{cache.CommentKey(c.ID), cache.AllTopLevelKey}
	if !c.IsTopLevel() {
		keys = append(keys, cache.CommentKey(*c.ParentID))
	}
	return keys
}
