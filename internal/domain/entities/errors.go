package entities

import (
	"errors"
	"fmt"
)

// Common error kinds. Storage and executor code matches these with errors.Is;
// the text sent back over the wire comes from the Error values built around
// them, not from the kinds themselves.
var (
	ErrUserExists            = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrWrongPassword         = errors.New("wrong password")
	ErrTaskExists            = errors.New("task already exists")
	ErrTaskNotFound          = errors.New("task not found")
	ErrCollaborationExists   = errors.New("collaboration already exists")
	ErrCollaborationNotFound = errors.New("collaboration not found")
	ErrAlreadyMember         = errors.New("user already a member")
	ErrTaskAlreadyAssigned   = errors.New("task already assigned")
	ErrNotLoggedIn           = errors.New("no logged user")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidTimeInterval   = errors.New("invalid time interval")
)

// Error pairs a matchable kind with the human-readable text that goes into a
// protocol reply. The kind is reachable through errors.Is/errors.Unwrap.
type Error struct {
	kind error
	msg  string
}

// Errorf builds an Error of the given kind with a formatted reply text.
func Errorf(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }
