package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/web/entity"
)

func TestCanAccess(t *testing.T) {
	owner := &model.User{Id: 1, Role: model.RoleUser}
	other := &model.User{Id: 2, Role: model.RoleUser}
	admin := &model.User{Id: 3, Role: model.RoleAdmin}
	todo := &model.Todo{Id: 10, UserId: owner.Id}

	assert.True(t, CanAccess(owner, todo))
	assert.False(t, CanAccess(other, todo))
	assert.True(t, CanAccess(admin, todo))
	assert.False(t, CanAccess(nil, todo))
	assert.False(t, CanAccess(owner, nil))
}

func TestCreateTodoDefaults(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)

	todo, err := env.todos.Create(testCtx, ann, entity.TodoCreateRequest{Title: "  Buy milk "})
	require.NoError(t, err)
	assert.NotZero(t, todo.Id)
	assert.Equal(t, "Buy milk", todo.Title)
	assert.Equal(t, model.CategoryNonUrgent, todo.Category)
	assert.Equal(t, model.StatusPending, todo.Status)
	assert.False(t, todo.Completed)
	assert.Equal(t, ann.Id, todo.UserId)
	assert.Nil(t, todo.DueDate)
}

func TestCreateTodoWithFields(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)

	var req entity.TodoCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Report",
		"description": "quarterly",
		"dueDate": "2024-05-01",
		"category": "Urgent",
		"status": "completed"
	}`), &req))

	todo, err := env.todos.Create(testCtx, ann, req)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryUrgent, todo.Category)
	assert.Equal(t, model.StatusCompleted, todo.Status)
	assert.True(t, todo.Completed)
	require.NotNil(t, todo.DueDate)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), todo.DueDate.UTC())
}

func TestCreateTodoValidation(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)

	_, err := env.todos.Create(testCtx, ann, entity.TodoCreateRequest{Title: "   "})
	requireKind(t, err, common.KindValidation)

	_, err = env.todos.Create(testCtx, ann, entity.TodoCreateRequest{Title: "ok", Category: "Later"})
	requireKind(t, err, common.KindValidation)
}

func TestListTodos(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	bob := env.addUser(t, "bob", model.RoleUser)
	root := env.addUser(t, "root", model.RoleAdmin)
	env.addTodo(t, ann, "a1")
	env.addTodo(t, ann, "a2")
	env.addTodo(t, bob, "b1")

	own, err := env.todos.List(testCtx, ann, false)
	require.NoError(t, err)
	assert.Len(t, own, 2)
	for _, todo := range own {
		assert.Equal(t, ann.Id, todo.UserId)
		assert.Nil(t, todo.User)
	}

	ignored, err := env.todos.List(testCtx, bob, true)
	require.NoError(t, err)
	require.Len(t, ignored, 1)
	assert.Equal(t, "b1", ignored[0].Title)

	adminOwn, err := env.todos.List(testCtx, root, false)
	require.NoError(t, err)
	assert.Empty(t, adminOwn)

	all, err := env.todos.List(testCtx, root, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, todo := range all {
		require.NotNil(t, todo.User)
		assert.Equal(t, todo.UserId, todo.User.Id)
	}
	assert.Equal(t, "bob", all[2].User.Username)
}

func TestGetTodoOwnership(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	bob := env.addUser(t, "bob", model.RoleUser)
	root := env.addUser(t, "root", model.RoleAdmin)
	todo := env.addTodo(t, ann, "a1")

	got, err := env.todos.Get(testCtx, ann, todo.Id)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.Title)

	_, err = env.todos.Get(testCtx, bob, todo.Id)
	appErr := requireKind(t, err, common.KindForbidden)
	assert.Equal(t, "Not authorized to view this todo", appErr.Message)

	_, err = env.todos.Get(testCtx, root, todo.Id)
	assert.NoError(t, err)
}

func TestMissingTodoIsNotFoundForEveryone(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	root := env.addUser(t, "root", model.RoleAdmin)

	for _, u := range []*model.User{ann, root} {
		_, err := env.todos.Get(testCtx, u, 999)
		appErr := requireKind(t, err, common.KindNotFound)
		assert.Equal(t, "Todo not found", appErr.Message)

		title := "x"
		_, err = env.todos.Update(testCtx, u, 999, entity.TodoUpdateRequest{Title: &title})
		requireKind(t, err, common.KindNotFound)

		requireKind(t, env.todos.Delete(testCtx, u, 999), common.KindNotFound)
	}
}

func TestUpdateTodoPartialPatch(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	todo, err := env.todos.Create(testCtx, ann, entity.TodoCreateRequest{
		Title:       "Original",
		Description: "keep me",
		Category:    model.CategoryUrgent,
	})
	require.NoError(t, err)

	var patch entity.TodoUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"title":"Renamed","description":null}`), &patch))

	updated, err := env.todos.Update(testCtx, ann, todo.Id, patch)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, model.CategoryUrgent, updated.Category)
	assert.Equal(t, model.StatusPending, updated.Status)

	reloaded, err := env.todos.Get(testCtx, ann, todo.Id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", reloaded.Title)
	assert.Equal(t, ann.Id, reloaded.UserId)
}

func TestUpdateTodoDueDate(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	todo := env.addTodo(t, ann, "a1")

	var set entity.TodoUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":"2030-01-02T15:04:05Z"}`), &set))
	updated, err := env.todos.Update(testCtx, ann, todo.Id, set)
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)

	var clear entity.TodoUpdateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":""}`), &clear))
	updated, err = env.todos.Update(testCtx, ann, todo.Id, clear)
	require.NoError(t, err)
	assert.Nil(t, updated.DueDate)

	reloaded, err := env.todos.Get(testCtx, ann, todo.Id)
	require.NoError(t, err)
	assert.Nil(t, reloaded.DueDate)
}

func TestUpdateTodoStatusAndCompleted(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	todo := env.addTodo(t, ann, "a1")

	yes, no := true, false
	inProgress := model.StatusInProgress
	completed := model.StatusCompleted

	cases := []struct {
		name      string
		patch     entity.TodoUpdateRequest
		status    model.Status
		completed bool
	}{
		{"completed true", entity.TodoUpdateRequest{Completed: &yes}, model.StatusCompleted, true},
		{"completed false reopens", entity.TodoUpdateRequest{Completed: &no}, model.StatusPending, false},
		{"status in-progress", entity.TodoUpdateRequest{Status: &inProgress}, model.StatusInProgress, false},
		{"completed false keeps in-progress", entity.TodoUpdateRequest{Completed: &no}, model.StatusInProgress, false},
		{"status completed", entity.TodoUpdateRequest{Status: &completed}, model.StatusCompleted, true},
		{"both agree", entity.TodoUpdateRequest{Status: &inProgress, Completed: &no}, model.StatusInProgress, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := env.todos.Update(testCtx, ann, todo.Id, tc.patch)
			require.NoError(t, err)
			assert.Equal(t, tc.status, updated.Status)
			assert.Equal(t, tc.completed, updated.Completed)
		})
	}

	_, err := env.todos.Update(testCtx, ann, todo.Id, entity.TodoUpdateRequest{Status: &completed, Completed: &no})
	requireKind(t, err, common.KindValidation)
}

func TestUpdateTodoValidation(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	todo := env.addTodo(t, ann, "a1")

	blank := "  "
	_, err := env.todos.Update(testCtx, ann, todo.Id, entity.TodoUpdateRequest{Title: &blank})
	requireKind(t, err, common.KindValidation)

	bad := model.Status("done")
	_, err = env.todos.Update(testCtx, ann, todo.Id, entity.TodoUpdateRequest{Status: &bad})
	requireKind(t, err, common.KindValidation)
}

func TestUpdateTodoForbidden(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	bob := env.addUser(t, "bob", model.RoleUser)
	todo := env.addTodo(t, ann, "a1")

	title := "hijacked"
	_, err := env.todos.Update(testCtx, bob, todo.Id, entity.TodoUpdateRequest{Title: &title})
	appErr := requireKind(t, err, common.KindForbidden)
	assert.Equal(t, "Not authorized to update this todo", appErr.Message)

	reloaded, err := env.todos.Get(testCtx, ann, todo.Id)
	require.NoError(t, err)
	assert.Equal(t, "a1", reloaded.Title)
}

func TestAdminUpdateIsAudited(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	root := env.addUser(t, "root", model.RoleAdmin)
	todo := env.addTodo(t, ann, "a1")

	title := "moderated"
	updated, err := env.todos.Update(testCtx, root, todo.Id, entity.TodoUpdateRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, ann.Id, updated.UserId)

	logs, total, err := env.audit.GetAuditLogs(testCtx, entity.AuditQuery{Action: "UPDATE"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, root.Id, logs[0].UserID)
	assert.Equal(t, todo.Id, logs[0].ResourceID)
	assert.Equal(t, "todo", logs[0].Resource)

	// Owners editing their own todos leave no trail.
	_, err = env.todos.Update(testCtx, ann, todo.Id, entity.TodoUpdateRequest{Title: &title})
	require.NoError(t, err)
	_, total, err = env.audit.GetAuditLogs(testCtx, entity.AuditQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestDeleteTodoSequence(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	bob := env.addUser(t, "bob", model.RoleUser)
	todo := env.addTodo(t, ann, "a1")

	err := env.todos.Delete(testCtx, bob, todo.Id)
	appErr := requireKind(t, err, common.KindForbidden)
	assert.Equal(t, "Not authorized to delete this todo", appErr.Message)

	require.NoError(t, env.todos.Delete(testCtx, ann, todo.Id))

	requireKind(t, env.todos.Delete(testCtx, ann, todo.Id), common.KindNotFound)
	requireKind(t, env.todos.Delete(testCtx, bob, todo.Id), common.KindNotFound)
}

func TestAdminDeleteIsAudited(t *testing.T) {
	env := newTestEnv(t)
	ann := env.addUser(t, "ann", model.RoleUser)
	root := env.addUser(t, "root", model.RoleAdmin)
	todo := env.addTodo(t, ann, "a1")

	ctx := WithRequestInfo(testCtx, RequestInfo{IP: "10.0.0.1", UserAgent: "test-agent"})
	require.NoError(t, env.todos.Delete(ctx, root, todo.Id))

	logs, _, err := env.audit.GetAuditLogs(testCtx, entity.AuditQuery{Resource: "todo"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "DELETE", logs[0].Action)
	assert.Equal(t, "10.0.0.1", logs[0].IP)
	assert.Equal(t, "test-agent", logs[0].UserAgent)
	assert.Contains(t, string(logs[0].Details), `"title":"a1"`)
}
