package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/todopanel/todo-panel/config"
	"github.com/todopanel/todo-panel/database"
	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/util/crypto"
)

const testSecret = "test-secret-which-is-long-enough-for-hs256"

type testEnv struct {
	db     *gorm.DB
	users  *UserService
	auth   *AuthService
	audit  *AuditLogService
	todos  *TodoService
	admins *UserAdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	db, err := database.InitDB(cfg, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB(db) })

	users := NewUserService(db)
	audit := NewAuditLogService(db)
	return &testEnv{
		db:     db,
		users:  users,
		auth:   NewAuthService(db, users, testSecret),
		audit:  audit,
		todos:  NewTodoService(db, audit),
		admins: NewUserAdminService(db, users, audit),
	}
}

// addUser inserts a user directly, bypassing registration rules.
func (e *testEnv) addUser(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	hash, err := crypto.HashPasswordAsBcrypt("password1")
	require.NoError(t, err)
	u := &model.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) addTodo(t *testing.T, owner *model.User, title string) *model.Todo {
	t.Helper()
	todo := &model.Todo{
		Title:    title,
		Category: model.CategoryNonUrgent,
		UserId:   owner.Id,
	}
	todo.SetStatus(model.StatusPending)
	require.NoError(t, e.db.Omit("User").Create(todo).Error)
	return todo
}

func requireKind(t *testing.T, err error, kind common.Kind) *common.Error {
	t.Helper()
	require.Error(t, err)
	var appErr *common.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, kind, appErr.Kind, "error: %v", err)
	return appErr
}

var testCtx = context.Background()
