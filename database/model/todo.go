package model

import "time"

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Todo belongs to exactly one user, fixed at creation.
type Todo struct {
	Id          int        `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string     `json:"title" gorm:"size:100;not null"`
	Description string     `json:"description" gorm:"size:500"`
	DueDate     *time.Time `json:"dueDate"`
	Category    Category   `json:"category" gorm:"size:16;not null"`
	Status      Status     `json:"status" gorm:"size:16;not null"`
	Completed   bool       `json:"completed" gorm:"not null"`
	UserId      int        `json:"userId" gorm:"index;not null"`
	CreatedAt   time.Time  `json:"createdAt"`

	// Owner, only loaded for admin-wide listings. Rendered through the
	// API's own todo view, never directly.
	User *User `json:"-" gorm:"foreignKey:UserId"`
}

// SetStatus updates the status and keeps Completed in sync with it.
func (t *Todo) SetStatus(s Status) {
	t.Status = s
	t.Completed = s == StatusCompleted
}
