package model

import (
	"errors"
	"fmt"
)

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCannotDeleteSelf   = errors.New("cannot delete own account")

	// Token related errors
	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Recycle bin related errors
	ErrRecordNotFound  = errors.New("record not found")
	ErrProtectedRecord = errors.New("record is protected")
	ErrAlreadyArchived = errors.New("record already archived")
	ErrAlreadyRestored = errors.New("record already restored")
	ErrHoldConflict    = errors.New("legal hold already in requested state")
	ErrEmptySelection  = errors.New("no records selected")

	// Entity related errors
	ErrLeadNotFound           = errors.New("lead not found")
	ErrGuestNotFound          = errors.New("guest not found")
	ErrServiceRequestNotFound = errors.New("service request not found")
	ErrShareholderNotFound    = errors.New("shareholder not found")
	ErrEquityClassNotFound    = errors.New("equity class not found")
	ErrEquityClassInUse       = errors.New("equity class still has shareholders")
	ErrSecurityNotFound       = errors.New("security not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrInvalidTransition      = errors.New("invalid status transition")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)

// ProtectedRecordError is returned when a restore or permanent delete targets a
// record that is protected or under legal hold. The record is left untouched.
type ProtectedRecordError struct {
	RecordID string
	Op       string
	Reason   string
}

func (e *ProtectedRecordError) Error() string {
	return fmt.Sprintf("%s rejected for record %s: %s", e.Op, e.RecordID, e.Reason)
}

func (e *ProtectedRecordError) Unwrap() error {
	return ErrProtectedRecord
}

// TransitionError reports a status change the entity's lifecycle does not allow.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %q to %q", e.Entity, e.ID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}
