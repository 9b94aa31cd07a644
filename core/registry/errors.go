package registry

import (
	"errors"
	"fmt"
)

// Category classifies registry failures.
type Category string

const (
	// CategoryAuth means the credentials were rejected or the account is locked.
	CategoryAuth Category = "auth"

	// CategoryTransient covers timeouts, 5xx, 429 and connection errors.
	CategoryTransient Category = "transient"

	// CategoryParse means the registry answered with markup or JSON we no longer understand.
	CategoryParse Category = "parse"

	// CategoryNotFound means the registry has no such team.
	CategoryNotFound Category = "not_found"
)

// Error wraps registry failures with a category.
type Error struct {
	Category  Category
	Op        string
	Message   string
	Err       error
	Retryable bool
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry %s [%s]: %s: %v", e.Op, e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("registry %s [%s]: %s", e.Op, e.Category, e.Message)
}

// Unwrap supports error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a categorized registry error. Only transient errors are retryable.
func NewError(category Category, op, message string, err error) *Error {
	return &Error{
		Category:  category,
		Op:        op,
		Message:   message,
		Err:       err,
		Retryable: category == CategoryTransient,
	}
}

// IsRetryable reports whether err is a registry error worth retrying.
func IsRetryable(err error) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Retryable
	}
	return false
}

// CategoryOf extracts the category of a registry error, or "" for any other error.
func CategoryOf(err error) Category {
	var re *Error
	if errors.As(err, &re) {
		return re.Category
	}
	return ""
}
