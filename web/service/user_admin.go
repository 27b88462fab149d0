package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/util/crypto"
	"github.com/todopanel/todo-panel/web/entity"
)

// UserAdminService holds the operations reserved to administrators and to
// the out-of-band CLI.
type UserAdminService struct {
	db    *gorm.DB
	users *UserService
	audit *AuditLogService
}

func NewUserAdminService(db *gorm.DB, users *UserService, audit *AuditLogService) *UserAdminService {
	return &UserAdminService{db: db, users: users, audit: audit}
}

// ListUsers returns every user ordered by id. Password hashes are never
// serialized.
func (s *UserAdminService) ListUsers(ctx context.Context) ([]model.User, error) {
	users := make([]model.User, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, common.NewInternalError(err)
	}
	return users, nil
}

// ChangeRole sets the role of targetID. An admin can never change their own
// role through this path.
func (s *UserAdminService) ChangeRole(ctx context.Context, actor *model.User, targetID int, req entity.RoleRequest) (*entity.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	target, err := s.users.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Id == actor.Id {
		return nil, common.NewSelfModificationError("Cannot change your own role")
	}

	previous := target.Role
	if err := s.setRole(ctx, target, model.Role(req.Role)); err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actor, "ROLE_CHANGE", "user", target.Id, map[string]any{
		"from": previous,
		"to":   target.Role,
	})
	logger.Noticef("admin %s changed role of %s from %s to %s", actor.Username, target.Username, previous, target.Role)
	profile := entity.NewProfile(target)
	return &profile, nil
}

// ForceRole sets a role without the self-modification rule. It is used by
// the CLI, which runs with operator rights rather than as a user.
func (s *UserAdminService) ForceRole(ctx context.Context, login string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, common.NewValidationMessage(entity.InvalidRoleMessage)
	}
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, common.NewNotFoundError("User not found")
	}
	if err := s.setRole(ctx, user, role); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserAdminService) setRole(ctx context.Context, user *model.User, role model.Role) error {
	err := s.db.WithContext(ctx).
		Model(user).
		Update("role", role).
		Error
	if err != nil {
		return common.NewInternalError(err)
	}
	user.Role = role
	return nil
}

// CreateUser creates an account with any role. Only the CLI calls it; public
// registration goes through AuthService.Register.
func (s *UserAdminService) CreateUser(ctx context.Context, req entity.RegisterRequest, role model.Role) (*model.User, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, common.NewValidationMessage(entity.InvalidRoleMessage)
	}
	hash, err := crypto.HashPasswordAsBcrypt(req.Password)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	user := &model.User{
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if database.IsDuplicateKey(err) {
			return nil, common.NewConflictError("Email or username already taken")
		}
		return nil, common.NewInternalError(err)
	}
	return user, nil
}
