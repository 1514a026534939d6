package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError là lỗi dữ liệu đầu vào. Không có thao tác ghi nào được thực hiện khi lỗi này xảy ra.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Is matches on Code, and on Field when the target names one.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Field == "" || t.Field == e.Field)
}

var (
	ErrEmptyItems    = &ValidationError{Code: "EMPTY_ITEMS", Message: "add at least one item before submitting"}
	ErrNotConfirmed  = &ValidationError{Code: "NOT_CONFIRMED", Message: "confirm the request before submitting"}
	ErrMissingField  = &ValidationError{Code: "MISSING_FIELD", Message: "required field is empty"}
	ErrInvalidField  = &ValidationError{Code: "INVALID_FIELD", Message: "field value is invalid"}
	ErrInvalidStatus = &ValidationError{Code: "INVALID_STATUS", Message: "unknown requisition status"}
)

func MissingField(field string) error {
	return &ValidationError{Code: ErrMissingField.Code, Field: field, Message: "is required"}
}

func InvalidField(field, reason string) error {
	return &ValidationError{Code: ErrInvalidField.Code, Field: field, Message: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate runs the `validate` struct tags and reports the first failure as a ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	switch fe.Tag() {
	case "required":
		return MissingField(field)
	case "oneof":
		return InvalidField(field, fmt.Sprintf("must be one of [%s]", fe.Param()))
	case "min":
		return InvalidField(field, fmt.Sprintf("must be at least %s", fe.Param()))
	default:
		return InvalidField(field, fmt.Sprintf("failed %q validation", fe.Tag()))
	}
}
