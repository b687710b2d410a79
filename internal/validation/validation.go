// Package validation checks caller-supplied data before it reaches a store.
// Every failure wraps common.ErrorValidation and lists the offending fields.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophcal/internal/common"
	"github.com/dmitrijs2005/gophcal/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("name")
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterAlias("username", "min=3,max=64")
	v.RegisterAlias("pwd", "min=6")
	v.RegisterAlias("mail", "required,contains=@,max=254")
	return v
}

type registration struct {
	Username string `name:"username" validate:"username"`
	Password string `name:"password" validate:"pwd"`
	Email    string `name:"email" validate:"mail"`
}

type schedule struct {
	Title           string          `name:"title" validate:"required,max=200"`
	StartTime       time.Time       `name:"start time" validate:"required"`
	EndTime         time.Time       `name:"end time" validate:"required,gtefield=StartTime"`
	ReminderMinutes int             `name:"reminder minutes" validate:"gte=0"`
	Category        models.Category `name:"category" validate:"oneof=Work Life Study Sports Entertainment Other"`
}

// ValidateRegistration checks the fields of a new account.
func ValidateRegistration(username, password, email string) error {
	return check(registration{Username: username, Password: password, Email: email})
}

func ValidatePassword(password string) error {
	return check(struct {
		Password string `name:"password" validate:"pwd"`
	}{password})
}

func ValidateEmail(email string) error {
	return check(struct {
		Email string `name:"email" validate:"mail"`
	}{email})
}

// ValidateSchedule checks s as it is about to be persisted. Title is expected
// to be trimmed already.
func ValidateSchedule(s *models.Schedule) error {
	return check(schedule{
		Title:           s.Title,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		ReminderMinutes: s.ReminderMinutes,
		Category:        s.Category,
	})
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+" "+message(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrorValidation, strings.Join(msgs, "; "))
}

func message(fe validator.FieldError) string {
	switch fe.ActualTag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters long"
	case "max":
		return "must be at most " + fe.Param() + " characters long"
	case "contains":
		return "must contain '" + fe.Param() + "'"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gtefield":
		return "must not be before start time"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return "is invalid (" + fe.ActualTag() + ")"
	}
}
