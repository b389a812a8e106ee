package domain

import "fmt"

// Kind classifies an Error. The HTTP layer maps each kind to a status code.
type Kind int

const (
	KindInvalid      Kind = iota + 1 // payload failed validation
	KindBadRequest                   // request cannot be processed as sent
	KindUnauthorized                 // wrong credentials
	KindForbidden                    // authenticated but not allowed
	KindNotFound
	KindConflict
)

// FieldError describes one failing field of one entry in a request.
type FieldError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
	Index   *int   `json:"index,omitempty"`
}

// At returns a FieldError index for position i of a batch.
func At(i int) *int { return &i }

// Error is the error type returned by services for client-caused failures.
// Anything else reaching the HTTP layer is treated as an internal error.
type Error struct {
	Kind    Kind
	Message string
	Errors  []FieldError
	Details map[string]any
}

func (e *Error) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s (%d field errors)", e.Message, len(e.Errors))
	}
	return e.Message
}

// Is reports whether target is the sentinel of the same kind, so that
// errors.Is(err, ErrNotFound) matches any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message != "" {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels, only meant for errors.Is.
var (
	ErrInvalid      = &Error{Kind: KindInvalid}
	ErrBadRequest   = &Error{Kind: KindBadRequest}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
)

const (
	MsgValidation       = "Validation error."
	MsgBookmarkNotFound = "Bookmark not found."
	MsgConcurrentWrite  = "The account was modified concurrently, retry."
)

func Invalid(errs ...FieldError) *Error {
	return &Error{Kind: KindInvalid, Message: MsgValidation, Errors: errs}
}

func BadRequest(msg string) *Error   { return &Error{Kind: KindBadRequest, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
