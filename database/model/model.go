// Package model defines the persisted entities of the todo panel.
package model

// Role is the RBAC tier of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Category of a todo.
type Category string

const (
	CategoryUrgent    Category = "Urgent"
	CategoryNonUrgent Category = "Non-Urgent"
)

func (c Category) Valid() bool {
	return c == CategoryUrgent || c == CategoryNonUrgent
}

// Status of a todo. It is the canonical completion state; Todo.Completed is
// derived from it.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusCompleted
}
