package annotation

import (
	"errors"
	"fmt"
)

// Kind classifies failures so the transport layer can pick a status.
type Kind int

const (
	KindInternal Kind = iota
	KindPrecondition
	KindValidation
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "PreconditionFailure"
	case KindValidation:
		return "ValidationError"
	case KindRender:
		return "RenderFailure"
	default:
		return "InternalError"
	}
}

// Error codes carried in API responses.
const (
	CodeInvalidPage       = "InvalidPage"
	CodeInvalidType       = "InvalidType"
	CodeInvalidCoordinate = "InvalidCoordinate"
	CodeMissingField      = "MissingField"
	CodeInvalidBody       = "InvalidBody"
	CodeNoDocument        = "NoDocument"
	CodeStaleSession      = "StaleSession"
	CodeInvalidDocument   = "InvalidDocument"
	CodeDocumentNotFound  = "DocumentNotFound"
	CodePageNotFound      = "PageNotFound"
	CodeRenderFailed      = "RenderFailed"
	CodeInternal          = "Internal"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Precondition(code, message string) *Error {
	return &Error{Kind: KindPrecondition, Code: code, Message: message}
}

func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

func RenderFailure(code, message string, err error) *Error {
	return &Error{Kind: KindRender, Code: code, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, treating foreign errors as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the code attached to err, or CodeInternal.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
