package store

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/comment-board/backend/internal/cache"
	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
)

// replyKeyLimit is the number of replies past which Delete drops every
// comment key by pattern instead of listing each reply key.
var replyKeyLimit = 50

// CommentStore owns comments and the parent/reply relationship. Replies are
// one level deep: a parent must itself be top-level.
type CommentStore struct {
	base
}

func NewCommentStore(db *gorm.DB, c *cache.Coordinator, logger logging.Logger, timeout time.Duration) *CommentStore {
	return &CommentStore{base: newBase(db, c, logger, timeout, "comments")}
}

func checkContent(content string) error {
	n := utf8.RuneCountInString(content)
	switch {
	case n == 0:
		return common.NewValidationError("content", "must not be empty")
	case n > models.MaxContentLength:
		return common.NewValidationError("content", "must be at most 1000 characters")
	}
	return nil
}

// Create stores a new comment with score 0. parentID, when set, must name an
// existing top-level comment.
func (s *CommentStore) Create(ctx context.Context, authorID uint, content string, parentID *uint, replyingTo *string) (*models.Comment, error) {
	if err := checkContent(content); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	comment := models.Comment{
		Content:    content,
		AuthorID:   authorID,
		ParentID:   parentID,
		ReplyingTo: replyingTo,
		Score:      0,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if parentID != nil {
			var parent models.Comment
			err := tx.Select("id").
				Where("id = ? AND parent_id IS NULL", *parentID).
				First(&parent).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.ErrorNotFound
			}
			if err != nil {
				return err
			}
		}

		if err := tx.Omit(clause.Associations).Create(&comment).Error; err != nil {
			// the parent vanished between the check and the insert
			if errors.Is(err, gorm.ErrForeignKeyViolated) && parentID != nil {
				return common.ErrorNotFound
			}
			return err
		}

		return withThread(tx).First(&comment, comment.ID).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	s.cache.Invalidate(ctx, threadKeys(&comment)...)
	s.logger.Info(ctx, "comment created", "comment_id", comment.ID, "author_id", authorID, "parent_id", parentID)

	return &comment, nil
}

// Get returns a comment with its author and replies.
func (s *CommentStore) Get(ctx context.Context, id uint) (*models.Comment, error) {
	return cache.ReadThrough(ctx, s.cache, cache.CommentKey(id), func(ctx context.Context) (*models.Comment, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		var comment models.Comment
		if err := withThread(s.db.WithContext(ctx)).First(&comment, id).Error; err != nil {
			return nil, classify(err)
		}
		return &comment, nil
	})
}

// ListTopLevel returns every top-level comment in insertion order, each with
// its replies attached.
func (s *CommentStore) ListTopLevel(ctx context.Context) ([]models.Comment, error) {
	return cache.ReadThrough(ctx, s.cache, cache.AllTopLevelKey, func(ctx context.Context) ([]models.Comment, error) {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		comments := []models.Comment{}
		err := withThread(s.db.WithContext(ctx)).
			Where("parent_id IS NULL").
			Order("id ASC").
			Find(&comments).Error
		if err != nil {
			return nil, classify(err)
		}
		return comments, nil
	})
}

// Update replaces the content of a comment owned by requesterID.
func (s *CommentStore) Update(ctx context.Context, id, requesterID uint, content string) (*models.Comment, error) {
	if err := checkContent(content); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, id).Error; err != nil {
			return err
		}
		if comment.AuthorID != requesterID {
			return common.ErrorForbidden
		}

		if err := tx.Model(&comment).Update("content", content).Error; err != nil {
			return err
		}

		return withThread(tx).First(&comment, id).Error
	})
	if err != nil {
		return nil, classify(err)
	}

	s.cache.Invalidate(ctx, threadKeys(&comment)...)
	s.logger.Info(ctx, "comment updated", "comment_id", id, "author_id", requesterID)

	return &comment, nil
}

// Delete removes a comment owned by requesterID. The schema cascades the
// deletion to its replies and to every vote on any of them.
func (s *CommentStore) Delete(ctx context.Context, id, requesterID uint) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		comment  models.Comment
		replyIDs []uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, id).Error; err != nil {
			return err
		}
		if comment.AuthorID != requesterID {
			return common.ErrorForbidden
		}

		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", id).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}

		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrorNotFound
		}
		return nil
	})
	if err != nil {
		return classify(err)
	}

	keys := threadKeys(&comment)
	if len(replyIDs) > replyKeyLimit {
		keys = append(keys, cache.AllCommentsPattern)
	} else {
		for _, rid := range replyIDs {
			keys = append(keys, cache.CommentKey(rid))
		}
	}
	s.cache.Invalidate(ctx, keys...)
	s.logger.Info(ctx, "comment deleted", "comment_id", id, "replies", len(replyIDs))

	return nil
}
