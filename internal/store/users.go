package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/comment-board/backend/internal/auth"
	"github.com/emilythestrangee/comment-board/backend/internal/common"
	"github.com/emilythestrangee/comment-board/backend/internal/logging"
	"github.com/emilythestrangee/comment-board/backend/internal/models"
)

// UserStore keeps registered users. It is never cached.
type UserStore struct {
	base
}

func NewUserStore(db *gorm.DB, logger logging.Logger, timeout time.Duration) *UserStore {
	return &UserStore{base: newBase(db, nil, logger, timeout, "users")}
}

// Register stores a new user with a bcrypt hash of password. A taken username
// or email yields common.ErrorAlreadyExists.
func (s *UserStore) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user := models.User{Username: username, Email: email, Password: hash}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", username, email).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return common.ErrorAlreadyExists
		}

		if err := tx.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return common.ErrorAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", username)
	return &user, nil
}

// Authenticate resolves username and password to a user. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, common.ErrorUnauthenticated
	}
	if err != nil {
		return nil, classify(err)
	}

	if err := auth.CheckPassword(user.Password, password); err != nil {
		s.logger.Debug(ctx, "login rejected", "username", username)
		return nil, common.ErrorUnauthenticated
	}
	return &user, nil
}

func (s *UserStore) Get(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, classify(err)
	}
	return &user, nil
}
