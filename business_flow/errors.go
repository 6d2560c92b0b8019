// Package businessflow contains the core business logic and use cases of the catalog
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/crud-project/repository"
)

// Business flow error constants
var (
	// Demo-related errors
	ErrDemoNotFound     = errors.New("demo not found")
	ErrDemoIDsRequired  = errors.New("at least one demo ID is required")
	ErrNoDemosMatched   = errors.New("no demos matched the given IDs")
	ErrDuplicateDemoID  = errors.New("demo ID already exists")
	ErrDemoRequestEmpty = errors.New("demo request is nil")

	// Storage errors
	ErrStorageUnavailable = repository.ErrStorageUnavailable
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsDemoNotFound(err error) bool {
	return errors.Is(err, ErrDemoNotFound)
}

func IsDemoIDsRequired(err error) bool {
	return errors.Is(err, ErrDemoIDsRequired)
}

func IsNoDemosMatched(err error) bool {
	return errors.Is(err, ErrNoDemosMatched)
}

func IsDuplicateDemoID(err error) bool {
	return errors.Is(err, ErrDuplicateDemoID)
}

func IsStorageUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// ErrorCode returns the code of the outermost BusinessError in err's chain
func ErrorCode(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
