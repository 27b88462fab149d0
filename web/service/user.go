package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUser loads a user by id. A missing user is a NotFoundError.
func (s *UserService) GetUser(ctx context.Context, id int) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).First(user, id).Error
	if database.IsNotFound(err) {
		return nil, common.NewNotFoundError("User not found")
	} else if err != nil {
		return nil, common.NewInternalError(err)
	}
	return user, nil
}

// FindByLogin looks a user up by email (case-insensitive) or username.
// It returns nil without error when nothing matches.
func (s *UserService) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	user := &model.User{}
	err := s.db.WithContext(ctx).
		Where("email = ? OR username = ?", strings.ToLower(login), login).
		Order("id ASC").
		First(user).
		Error
	if database.IsNotFound(err) {
		return nil, nil
	} else if err != nil {
		return nil, common.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) emailTaken(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "email = ?", email)
}

func (s *UserService) usernameTaken(ctx context.Context, username string) (bool, error) {
	return s.exists(ctx, "username = ?", username)
}

func (s *UserService) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.User{}).Where(query, args...).Count(&count).Error
	if err != nil {
		return false, common.NewInternalError(err)
	}
	return count > 0, nil
}
