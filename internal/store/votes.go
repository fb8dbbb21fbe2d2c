package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/comment-board/backend/internal/cache"
	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
)

const maxVoteAttempts = 3

// errVoteConflict marks an attempt that lost a race with a concurrent vote
// by the same user on the same comment.
var errVoteConflict = errors.New("concurrent vote")

// VoteLedger records at most one vote per (user, comment) and keeps the
// comment score equal to the sum of its votes.
type VoteLedger struct {
	base
}

func NewVoteLedger(db *gorm.DB, c *cache.Coordinator, logger logging.Logger, timeout time.Duration) *VoteLedger {
	return &VoteLedger{base: newBase(db, c, logger, timeout, "votes")}
}

// ApplyVote records voterID's vote on commentID and returns the updated
// comment. Repeating the current direction fails with ErrorDuplicateVote and
// changes nothing; the opposite direction flips the vote and moves the score
// by two.
func (l *VoteLedger) ApplyVote(ctx context.Context, commentID, voterID uint, direction models.Direction) (*models.Comment, error) {
	if !direction.Valid() {
		return nil, common.NewValidationError("vote", "must be one of: up, down")
	}

	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	var (
		comment *models.Comment
		err     error
	)
	for attempt := 1; attempt <= maxVoteAttempts; attempt++ {
		comment, err = l.apply(ctx, commentID, voterID, direction)
		if !errors.Is(err, errVoteConflict) {
			break
		}
		l.logger.Debug(ctx, "vote attempt lost a race, retrying",
			"comment_id", commentID, "user_id", voterID, "attempt", attempt)
	}
	if err != nil {
		return nil, classify(err)
	}

	l.cache.Invalidate(ctx, threadKeys(comment)...)
	l.logger.Info(ctx, "vote applied",
		"comment_id", commentID, "user_id", voterID, "direction", direction, "score", comment.Score)

	return comment, nil
}

func (l *VoteLedger) apply(ctx context.Context, commentID, voterID uint, direction models.Direction) (*models.Comment, error) {
	var comment models.Comment

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&comment, commentID).Error; err != nil {
			return err
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND comment_id = ?", voterID, commentID).
			Take(&existing).Error

		var delta int
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			delta = direction.Delta()
			vote := models.Vote{UserID: voterID, CommentID: commentID, Direction: direction}
			if err := tx.Omit(clause.Associations).Create(&vote).Error; err != nil {
				switch {
				case errors.Is(err, gorm.ErrDuplicatedKey):
					return errVoteConflict
				case errors.Is(err, gorm.ErrForeignKeyViolated):
					return common.ErrorNotFound
				}
				return err
			}

		case err != nil:
			return err

		case existing.Direction == direction:
			return common.ErrorDuplicateVote

		default:
			delta = 2 * direction.Delta()
			res := tx.Model(&models.Vote{}).
				Where("user_id = ? AND comment_id = ? AND direction = ?", voterID, commentID, existing.Direction).
				Updates(map[string]any{"direction": direction, "updated_at": time.Now().UTC()})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errVoteConflict
			}
		}

		res := tx.Model(&models.Comment{}).
			Where("id = ?", commentID).
			UpdateColumn("score", gorm.Expr("score + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return common.ErrorNotFound
		}

		return withThread(tx).First(&comment, commentID).Error
	})
	if err != nil {
		return nil, err
	}
	return &comment, nil
}
