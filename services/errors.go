package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures so the HTTP layer can pick a status code.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthentication
	KindPermissionDenied
	KindNotFound
	KindConflict
)

// AppError is a failure the caller can act on. Message is safe to show to clients.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func validationError(msg string) error { return &AppError{Kind: KindValidation, Message: msg} }

var (
	ErrInvalidCredentials = &AppError{Kind: KindAuthentication, Message: "Invalid credentials"}
	ErrAuthorityRequired  = &AppError{Kind: KindPermissionDenied, Message: "Authority access required"}
	ErrEmailTaken         = &AppError{Kind: KindConflict, Message: "Email already registered"}
	ErrIssueNotFound      = &AppError{Kind: KindNotFound, Message: "Issue not found"}
	ErrUserNotFound       = &AppError{Kind: KindNotFound, Message: "User not found"}
)

// KindOf reports the kind of err; errors that are not *AppError are internal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
