package service

import "errors"

var (
	// ErrAccountSuspended terminates the login: the caller must invalidate
	// the provider token and show the suspension message.
	ErrAccountSuspended = errors.New("account suspended")

	// ErrWrongPortal means a member-portal login resolved to an operator
	// subject. Never reported before the member lookup has failed.
	ErrWrongPortal = errors.New("administrators must use the operator entry point")

	// ErrNotAuthorized means an operator-portal login found no operator row.
	// Operator login never falls back to member.
	ErrNotAuthorized = errors.New("not an authorized operator")

	ErrValidation = errors.New("validation failed")

	// ErrStoreUnavailable wraps transient store failures. Reads may be
	// retried; writes must surface to the caller, never drop silently.
	ErrStoreUnavailable = errors.New("store unavailable")
)
