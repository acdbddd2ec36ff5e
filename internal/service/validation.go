package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/helpdesk360/internal/domain"
	apperrors "github.com/spec-kit/helpdesk360/pkg/util"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{5,50}$`)

// newValidator returns a validator with the request rules registered.
// Field errors are reported under their json names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "request_status", func(fl validator.FieldLevel) bool {
		return domain.RequestStatus(fl.Field().String()).Valid()
	})
	mustRegister(v, "request_priority", func(fl validator.FieldLevel) bool {
		return domain.RequestPriority(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("register validation " + tag + ": " + err.Error())
	}
}

// validationError converts validator output into a VALIDATION_FAILED error
// whose details map each offending field to the failed rule.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError(err.Error(), nil)
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		fields[fieldPath(fe.Namespace())] = rule
	}
	return apperrors.NewValidationError("request validation failed", map[string]any{"fields": fields})
}

// fieldPath drops the struct name prefix from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
