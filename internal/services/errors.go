package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cityofhelsinki/benefit-backend/internal/utils"
)

var (
	ErrForbidden         = errors.New("forbidden")
	ErrHandlerOnlyField  = fmt.Errorf("%w: field can only be changed by a handler", ErrForbidden)
	ErrNotEditable       = fmt.Errorf("%w: application is not editable", ErrForbidden)
	ErrTransitionDenied  = fmt.Errorf("%w: status change not allowed", ErrForbidden)
	ErrApplicationAccess = fmt.Errorf("%w: application belongs to another company", ErrForbidden)
	ErrCompanyNotFound   = errors.New("company not found")
)

// ValidationError collects every field violation found in one request.
type ValidationError struct {
	Errors []utils.ValidationError
}

func (e *ValidationError) Add(field, tag, message string) {
	e.Errors = append(e.Errors, utils.ValidationError{Field: field, Tag: tag, Message: message})
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when nothing was collected, so callers can write
// `return errs.OrNil()`.
func (e *ValidationError) OrNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// HasField reports whether a violation was recorded for field.
func (e *ValidationError) HasField(field string) bool {
	for _, fe := range e.Errors {
		if fe.Field == field {
			return true
		}
	}
	return false
}
