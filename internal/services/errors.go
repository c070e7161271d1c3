package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrReportNotFound       = errors.New("report not found")
	ErrTokenNotFound        = errors.New("token not found, please check it again")
	ErrConfirmationRequired = errors.New("operation must be confirmed")
	ErrOfficerOnly          = errors.New("officer access required")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
)

// ValidationError is rejected user input. Nothing was written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StoreError wraps a failure from the persistence layer. Its message is the
// underlying failure's, unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

var validate = validator.New()

// validateStruct runs tag validation and reports the first failing field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return invalid(field, "is required")
	case "email":
		return invalid(field, "must be a valid email address")
	case "numeric":
		return invalid(field, "must contain digits only")
	default:
		return invalid(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}
