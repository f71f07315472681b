package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/frahmantamala/gearguard/internal"
	"github.com/frahmantamala/gearguard/internal/core/common/coerce"
	coreUser "github.com/frahmantamala/gearguard/internal/core/user"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Default returns the shared validator with field names taken from json tags
// and the coerce types registered.
func Default() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			t, ok := field.Interface().(coerce.Time)
			if !ok || t.IsZero() {
				return nil
			}
			return t.Time
		}, coerce.Time{})
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			o, ok := field.Interface().(coerce.OptionalID)
			if !ok || !o.Valid {
				return nil
			}
			return o.Value
		}, coerce.OptionalID{})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			_, ok := coreUser.ParseRole(fl.Field().String())
			return ok
		})
		instance = v
	})
	return instance
}

// Register adds a domain rule to the shared validator.
func Register(tag string, fn validator.Func) {
	if err := Default().RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %s: %v", tag, err))
	}
}

// Struct validates v and converts failures into a field-level AppError.
func Struct(v interface{}) *internal.AppError {
	err := Default().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}
	out := make([]internal.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, internal.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    string(internal.ErrCodeValidationFailed),
		})
	}
	return internal.NewValidationErrors(out)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), minimum(fe))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "role":
		return fmt.Sprintf("%s must be one of ADMIN, TECHNICIAN, REQUESTER", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" && fe.Param() == "0" {
		return "1"
	}
	return fe.Param()
}
