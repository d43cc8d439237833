package console

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/scibridge/scibridge/core"
	"github.com/scibridge/scibridge/core/account"
	"github.com/scibridge/scibridge/core/authz"
)

var (
	deadlineTag  = "deadline"
	deadlineText = "deadline must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"

	roleTag  = "role"
	roleText = "role must be one of student, teacher or admin"

	statusTag  = "status"
	statusText = "status must be one of active or banned"

	deadlineLayouts = []string{time.RFC3339, "2006-01-02"}
)

// InitValidators registers the console rules on `validate`.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(deadlineTag, deadlineValidation)
	core.RegisterCustomTranslation(validate, translator, deadlineTag, deadlineText)

	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

// parseDeadline accepts a calendar date or a full timestamp and returns it in UTC.
func parseDeadline(s string) (time.Time, bool) {
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func deadlineValidation(fl validator.FieldLevel) bool {
	_, ok := parseDeadline(core.CleanString(fl.Field().String()))
	return ok
}

func roleValidation(fl validator.FieldLevel) bool {
	_, err := authz.ParseRole(fl.Field().String())
	return err == nil
}

func statusValidation(fl validator.FieldLevel) bool {
	_, err := account.ParseStatus(fl.Field().String())
	return err == nil
}
