package entity

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/todopanel/todo-panel/util/common"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// messages maps "field.tag" to the message returned to the caller.
var messages = map[string]string{
	"email.required":    "Enter a valid email",
	"email.email":       "Enter a valid email",
	"username.required": "Username is required",
	"username.max":      "Username cannot exceed 64 characters",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 8 characters long",
	"password.max":      "Password cannot exceed 72 characters",
	"login.required":    "Login is required",
	"title.required":    "Title is required",
	"title.max":         "Title cannot exceed 100 characters",
	"description.max":   "Description cannot exceed 500 characters",
	"category.oneof":    "Category must be either Urgent or Non-Urgent",
	"status.oneof":      "Status must be pending, in-progress, or completed",
}

func message(field, tag string) string {
	if msg, ok := messages[field+"."+tag]; ok {
		return msg
	}
	return field + " is invalid"
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.NewInternalError(err)
	}
	fields := make([]common.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, common.FieldError{Field: fe.Field(), Message: message(fe.Field(), fe.Tag())})
	}
	return common.NewValidationError(fields...)
}

func validateVar(field string, value any, tag string) []common.FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []common.FieldError{{Field: field, Message: field + " is invalid"}}
	}
	out := make([]common.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, common.FieldError{Field: field, Message: message(field, fe.Tag())})
	}
	return out
}
