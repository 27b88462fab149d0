package entity

import (
	"bytes"
	"strconv"
	"time"

	"github.com/todopanel/todo-panel/util/common"
)

const dateLayout = "2006-01-02"

// Date accepts either a calendar date ("2024-05-01") or an RFC 3339
// timestamp. An empty string decodes to the zero Date, which clears a due date.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return common.NewValidationError(common.FieldError{Field: "dueDate", Message: "Due date must be a date string"})
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t.UTC()
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return common.NewValidationError(common.FieldError{Field: "dueDate", Message: "Due date must be a valid date"})
	}
	d.Time = t
	return nil
}

// Ptr returns the date as a *time.Time, nil for the zero Date.
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
