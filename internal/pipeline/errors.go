package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a failed run.
type Kind string

const (
	// KindInvalidImage means the input could not be decoded into pixels.
	KindInvalidImage Kind = "invalid_image"
	// KindCollaborator means the OCR engine failed.
	KindCollaborator Kind = "collaborator_failure"
	// KindInvalidOptions means the options record was rejected.
	KindInvalidOptions Kind = "invalid_options"
)

// Sentinels for errors.Is.
var (
	ErrInvalidImage   = errors.New("invalid image")
	ErrCollaborator   = errors.New("ocr collaborator failure")
	ErrInvalidOptions = errors.New("invalid options")
)

var sentinels = map[Kind]error{
	KindInvalidImage:   ErrInvalidImage,
	KindCollaborator:   ErrCollaborator,
	KindInvalidOptions: ErrInvalidOptions,
}

// Error is a failed run. No partial result accompanies it.
type Error struct {
	Kind      Kind
	Message   string
	RequestID string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

func newError(kind Kind, requestID, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, RequestID: requestID, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
