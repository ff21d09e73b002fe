package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is against any error returned by this module.
var (
	ErrValidation         = errors.New("validation failed")
	ErrAuth               = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNetwork            = errors.New("network unavailable")
	ErrRequest            = errors.New("request failed")
	ErrBusinessConflict   = errors.New("rejected by server")
	ErrAlreadyInProgress  = errors.New("submission already in progress")
	ErrNoDraft            = errors.New("no draft order")
	ErrNoAddress          = errors.New("no shipping address")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Error carries a kind plus the best human-readable message available.
type Error struct {
	Kind    error
	Status  int    // HTTP status, 0 when the failure happened before a response
	Code    string // envelope code when the server rejected the request
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func NewError(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Reclassify returns a copy of err's *Error with a different kind. Errors
// that are not *Error are wrapped as-is.
func Reclassify(err error, kind error) error {
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.Kind = kind
		c.Cause = e
		return &c
	}
	return &Error{Kind: kind, Message: err.Error(), Cause: err}
}

// Message returns the single message to show the shopper.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	return err.Error()
}

// KindOf reports which taxonomy entry err belongs to, or nil.
func KindOf(err error) error {
	for _, k := range []error{
		ErrAlreadyInProgress, ErrNoDraft, ErrNoAddress, ErrSelectionCancelled,
		ErrValidation, ErrAuth, ErrForbidden, ErrBusinessConflict, ErrNetwork, ErrRequest,
	} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName is a stable machine-readable label for err's kind.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrValidation:
		return "validation"
	case ErrAuth:
		return "auth"
	case ErrForbidden:
		return "forbidden"
	case ErrNetwork:
		return "network"
	case ErrRequest:
		return "request"
	case ErrBusinessConflict:
		return "conflict"
	case ErrAlreadyInProgress:
		return "in_progress"
	case ErrNoDraft:
		return "no_draft"
	case ErrNoAddress:
		return "no_address"
	case ErrSelectionCancelled:
		return "cancelled"
	default:
		return "internal"
	}
}
