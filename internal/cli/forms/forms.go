// Package forms validates user input on the client before anything is sent
// to the API.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/i18n"
)

// Login is the sign-in form
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Registration is the sign-up form
type Registration struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required,max=100"`
}

// PasswordReset is the form that sets a new password with a reset token
type PasswordReset struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// Creator is the form for creating a creator
type Creator struct {
	Name  string   `json:"name" validate:"required,max=100"`
	Email string   `json:"email" validate:"required,email"`
	Bio   string   `json:"bio" validate:"max=500"`
	Tags  []string `json:"tags" validate:"dive,required,max=30"`
}

// Content is the metadata form of an upload
type Content struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	Type        string   `json:"type" validate:"required,oneof=image video text"`
	Platforms   []string `json:"platforms" validate:"required,min=1,dive,platform"`
	Tags        []string `json:"tags" validate:"dive,required,max=30"`
}

// Schedule is the form for scheduling a publication
type Schedule struct {
	ScheduledDate time.Time `json:"scheduledDate" validate:"required,future"`
}

// FieldError is a failed check on one field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a form fails validation. It never reaches
// the API.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	messages := make([]string, len(e.Fields))
	for i, field := range e.Fields {
		messages[i] = field.Message
	}
	return e.Message + " " + strings.Join(messages, "; ")
}

// Validator checks forms and reports failures in one locale
type Validator struct {
	validate *validator.Validate
	tr       *i18n.Translator
	now      func() time.Time
}

// New creates a Validator whose messages use tr
func New(tr *i18n.Translator) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tr:       tr,
		now:      time.Now,
	}

	// Report fields under their wire names
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v.validate.RegisterValidation("future", func(fl validator.FieldLevel) bool {
		at, ok := fl.Field().Interface().(time.Time)
		return ok && at.After(v.now())
	})

	v.validate.RegisterValidation("platform", func(fl validator.FieldLevel) bool {
		value := client.PlatformType(fl.Field().String())
		for _, p := range client.Platforms {
			if p == value {
				return true
			}
		}
		return false
	})

	return v
}

// Struct validates one of the form types of this package
func (v *Validator) Struct(form any) error {
	err := v.validate.Struct(form)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}

	verr := &ValidationError{Message: v.tr.T(i18n.Validation)}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{
			Field:   fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:],
			Message: v.message(fe),
		})
	}
	return verr
}

func (v *Validator) message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return v.tr.T(i18n.FieldRequired, field)
	case "email":
		return v.tr.T(i18n.FieldEmail, field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return v.tr.T(i18n.FieldRequired, field)
		}
		return v.tr.T(i18n.FieldTooShort, field, fe.Param())
	case "max":
		return v.tr.T(i18n.FieldTooLong, field, fe.Param())
	case "oneof":
		return v.tr.T(i18n.FieldChoice, field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "platform":
		names := make([]string, len(client.Platforms))
		for i, p := range client.Platforms {
			names[i] = string(p)
		}
		return v.tr.T(i18n.FieldChoice, field, strings.Join(names, ", "))
	case "future":
		return v.tr.T(i18n.FieldFuture, field)
	default:
		return v.tr.T(i18n.FieldInvalid, field)
	}
}
