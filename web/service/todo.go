package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/logger"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/entity"
)

// CanAccess reports whether principal may view, edit or delete todo:
// admins may touch any todo, everyone else only their own.
func CanAccess(principal *model.User, todo *model.Todo) bool {
	if principal == nil || todo == nil {
		return false
	}
	return principal.IsAdmin() || principal.Id == todo.UserId
}

type TodoService struct {
	db    *gorm.DB
	audit *AuditLogService
}

func NewTodoService(db *gorm.DB, audit *AuditLogService) *TodoService {
	return &TodoService{db: db, audit: audit}
}

// List returns the principal's own todos. Only an admin with showAll set
// gets every todo, with owners joined.
func (s *TodoService) List(ctx context.Context, principal *model.User, showAll bool) ([]model.Todo, error) {
	if principal.IsAdmin() && showAll {
		return s.ListAll(ctx)
	}
	todos := make([]model.Todo, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", principal.Id).
		Order("id ASC").
		Find(&todos).
		Error
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return todos, nil
}

// ListAll returns every todo with the owner's id, username and email loaded.
func (s *TodoService) ListAll(ctx context.Context) ([]model.Todo, error) {
	todos := make([]model.Todo, 0)
	err := s.db.WithContext(ctx).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "email")
		}).
		Order("id ASC").
		Find(&todos).
		Error
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return todos, nil
}

// Create stores a new todo owned by principal.
func (s *TodoService) Create(ctx context.Context, principal *model.User, req entity.TodoCreateRequest) (*model.Todo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	todo := &model.Todo{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.Ptr(),
		Category:    model.CategoryNonUrgent,
		UserId:      principal.Id,
	}
	if req.Category != "" {
		todo.Category = req.Category
	}
	todo.SetStatus(model.StatusPending)
	if req.Status != "" {
		todo.SetStatus(req.Status)
	}
	if err := s.db.WithContext(ctx).Omit("User").Create(todo).Error; err != nil {
		return nil, common.NewInternalError(err)
	}
	logger.Debugf("user %d created todo %d", principal.Id, todo.Id)
	return todo, nil
}

// Get returns a single todo the principal may view.
func (s *TodoService) Get(ctx context.Context, principal *model.User, id int) (*model.Todo, error) {
	return s.load(ctx, principal, id, "view")
}

// Update applies a partial patch. Fields absent from req are left as stored.
func (s *TodoService) Update(ctx context.Context, principal *model.User, id int, req entity.TodoUpdateRequest) (*model.Todo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	todo, err := s.load(ctx, principal, id, "update")
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return todo, nil
	}

	applyPatch(todo, &req)

	if err := s.db.WithContext(ctx).Omit("User").Save(todo).Error; err != nil {
		return nil, common.NewInternalError(err)
	}
	if todo.UserId != principal.Id {
		s.audit.LogAction(ctx, principal, "UPDATE", "todo", todo.Id, map[string]any{"owner": todo.UserId})
	}
	return todo, nil
}

func applyPatch(todo *model.Todo, req *entity.TodoUpdateRequest) {
	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate.Ptr()
	}
	if req.Category != nil {
		todo.Category = *req.Category
	}
	switch {
	case req.Status != nil:
		todo.SetStatus(*req.Status)
	case req.Completed != nil && *req.Completed:
		todo.SetStatus(model.StatusCompleted)
	case req.Completed != nil && todo.Status == model.StatusCompleted:
		todo.SetStatus(model.StatusPending)
	}
}

// Delete removes a todo the principal may delete.
func (s *TodoService) Delete(ctx context.Context, principal *model.User, id int) error {
	todo, err := s.load(ctx, principal, id, "delete")
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Todo{}, todo.Id).Error; err != nil {
		return common.NewInternalError(err)
	}
	if todo.UserId != principal.Id {
		s.audit.LogAction(ctx, principal, "DELETE", "todo", todo.Id, map[string]any{"owner": todo.UserId, "title": todo.Title})
	}
	return nil
}

// load resolves the id before checking ownership, so a missing todo is
// always a NotFoundError regardless of who asks.
func (s *TodoService) load(ctx context.Context, principal *model.User, id int, verb string) (*model.Todo, error) {
	todo := &model.Todo{}
	err := s.db.WithContext(ctx).First(todo, id).Error
	if database.IsNotFound(err) {
		return nil, common.NewNotFoundError("Todo not found")
	} else if err != nil {
		return nil, common.NewInternalError(err)
	}
	if !CanAccess(principal, todo) {
		return nil, common.NewForbiddenError("Not authorized to " + verb + " this todo")
	}
	return todo, nil
}
