package service

import (
	"errors"
	"fmt"

	"go-cake-store/pkg/database"
	"go-cake-store/pkg/validator"
)

// Kind classifies an engine failure for the caller.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindBusinessRule
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

var (
	ErrTenantRequired = errors.New("tenant id is required")
	ErrUserRequired   = errors.New("user id is required")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidSort    = errors.New("unknown sort key")

	ErrProductNotFound = errors.New("product not found")
	ErrFlavorNotFound  = errors.New("flavor not found for this product")
	ErrSizeNotFound    = errors.New("size not found for this product")
	ErrLineNotFound    = errors.New("cart item not found")

	ErrProductUnavailable   = errors.New("product is not available")
	ErrFlavorUnavailable    = errors.New("flavor is not available for this product")
	ErrSizeUnavailable      = errors.New("size is not available for this product")
	ErrQuantityExceedsLimit = errors.New("quantity exceeds the per-item limit of 10")

	ErrLineBusy = errors.New("cart item is being updated, try again")
)

// Error is the typed failure returned by every engine operation.
type Error struct {
	Kind      Kind
	Op        string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the caller-facing text. Store details stay internal.
func (e *Error) Message() string {
	if e.Kind == KindStore {
		if e.Retryable {
			return "service temporarily unavailable, please retry"
		}
		return "internal error"
	}
	return e.Err.Error()
}

func invalid(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

func invalidStruct(op string, errs []*validator.ErrorResponse) *Error {
	return invalid(op, fmt.Errorf("%w: %s", ErrInvalidInput, errs[0].String()))
}

func notFound(op string, err error) *Error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

func businessRule(op string, err error) *Error {
	return &Error{Kind: KindBusinessRule, Op: op, Err: err}
}

// storeErr wraps a persistence failure, keeping an already typed error as is.
func storeErr(op string, err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	// a unique violation means another writer won an insert race; the next
	// attempt reads its row
	retryable := database.IsTransient(err) || database.IsUniqueViolation(err)
	return &Error{Kind: KindStore, Op: op, Err: err, Retryable: retryable}
}

func retryableStoreErr(op string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Err: err, Retryable: true}
}

// KindOf returns the kind of a typed error, or 0 for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsBusinessRule(err error) bool { return KindOf(err) == KindBusinessRule }
func IsStore(err error) bool        { return KindOf(err) == KindStore }

// IsRetryable reports whether err is a transient store failure.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindStore && e.Retryable
}

// IsQuantityExceedsLimit reports the per-line ceiling violation.
func IsQuantityExceedsLimit(err error) bool {
	return IsBusinessRule(err) && errors.Is(err, ErrQuantityExceedsLimit)
}
