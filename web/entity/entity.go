// Package entity defines the request and response schemas of every endpoint
// together with their field validation.
package entity

import (
	"strings"
	"time"

	"github.com/todopanel/todo-panel/database/model"
	"github.com/todopanel/todo-panel/util/common"
	"github.com/todopanel/todo-panel/util/crypto"
)

// MessageResponse is the body of simple acknowledgements and of errors.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries either a message or a list of field errors.
type ErrorResponse struct {
	Message string              `json:"message,omitempty"`
	Errors  []common.FieldError `json:"errors,omitempty"`
}

// Profile is the public view of a user.
type Profile struct {
	Id       int        `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

func NewProfile(u *model.User) Profile {
	return Profile{Id: u.Id, Username: u.Username, Email: u.Email, Role: u.Role}
}

// Owner is the part of a user shown next to todos on admin-wide listings.
type Owner struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TodoResponse is the wire form of a todo. User is set only when the owner
// was loaded.
type TodoResponse struct {
	Id          int            `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	DueDate     *time.Time     `json:"dueDate"`
	Category    model.Category `json:"category"`
	Status      model.Status   `json:"status"`
	Completed   bool           `json:"completed"`
	UserId      int            `json:"userId"`
	CreatedAt   time.Time      `json:"createdAt"`
	User        *Owner         `json:"user,omitempty"`
}

func NewTodoResponse(t *model.Todo) TodoResponse {
	resp := TodoResponse{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Category:    t.Category,
		Status:      t.Status,
		Completed:   t.Completed,
		UserId:      t.UserId,
		CreatedAt:   t.CreatedAt,
	}
	if t.User != nil {
		resp.User = &Owner{Id: t.User.Id, Username: t.User.Username, Email: t.User.Email}
	}
	return resp
}

func NewTodoResponses(todos []model.Todo) []TodoResponse {
	out := make([]TodoResponse, 0, len(todos))
	for i := range todos {
		out = append(out, NewTodoResponse(&todos[i]))
	}
	return out
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Profile
	Token string `json:"token"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Username = strings.TrimSpace(r.Username)
}

func (r *RegisterRequest) Validate() error {
	if err := validateStruct(r); err != nil {
		return err
	}
	// The max tag counts runes; bcrypt's limit is in bytes.
	if len(r.Password) > crypto.MaxPasswordBytes {
		return common.NewValidationError(common.FieldError{Field: "password", Message: message("password", "max")})
	}
	return nil
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Login = strings.TrimSpace(r.Login)
}

func (r *LoginRequest) Validate() error {
	return validateStruct(r)
}

const InvalidRoleMessage = "Invalid role specified"

type RoleRequest struct {
	Role string `json:"role"`
}

func (r *RoleRequest) Validate() error {
	if !model.Role(r.Role).Valid() {
		return common.NewValidationMessage(InvalidRoleMessage)
	}
	return nil
}

// TodoCreateRequest creates a todo owned by the caller. There is no owner
// field: ownership always comes from the authenticated principal.
type TodoCreateRequest struct {
	Title       string         `json:"title" validate:"required,max=100"`
	Description string         `json:"description" validate:"max=500"`
	DueDate     *Date          `json:"dueDate"`
	Category    model.Category `json:"category" validate:"omitempty,oneof=Urgent Non-Urgent"`
	Status      model.Status   `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
}

func (r *TodoCreateRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *TodoCreateRequest) Validate() error {
	return validateStruct(r)
}

// TodoUpdateRequest is a partial patch. A nil field is left untouched.
type TodoUpdateRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	DueDate     *Date           `json:"dueDate"`
	Category    *model.Category `json:"category"`
	Status      *model.Status   `json:"status"`
	Completed   *bool           `json:"completed"`
}

func (r *TodoUpdateRequest) Normalize() {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		r.Title = &t
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
}

func (r *TodoUpdateRequest) Validate() error {
	var fields []common.FieldError
	if r.Title != nil {
		fields = append(fields, validateVar("title", *r.Title, "required,max=100")...)
	}
	if r.Description != nil {
		fields = append(fields, validateVar("description", *r.Description, "max=500")...)
	}
	if r.Category != nil {
		fields = append(fields, validateVar("category", string(*r.Category), "oneof=Urgent Non-Urgent")...)
	}
	if r.Status != nil {
		fields = append(fields, validateVar("status", string(*r.Status), "oneof=pending in-progress completed")...)
	}
	if r.Status != nil && r.Completed != nil && r.Status.Valid() &&
		(*r.Status == model.StatusCompleted) != *r.Completed {
		fields = append(fields, common.FieldError{Field: "completed", Message: "Completed contradicts status"})
	}
	if len(fields) > 0 {
		return common.NewValidationError(fields...)
	}
	return nil
}

// Empty reports whether the patch changes nothing.
func (r *TodoUpdateRequest) Empty() bool {
	return r.Title == nil && r.Description == nil && r.DueDate == nil &&
		r.Category == nil && r.Status == nil && r.Completed == nil
}

// AuditQuery filters the audit listing.
type AuditQuery struct {
	UserID   int    `form:"userId"`
	Action   string `form:"action"`
	Resource string `form:"resource"`
	Limit    int    `form:"limit"`
	Offset   int    `form:"offset"`
}

func (q *AuditQuery) Normalize() {
	if q.Limit <= 0 || q.Limit > 1000 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// HealthResponse is returned by the liveness endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
