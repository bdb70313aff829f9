package shared

import "errors"

var (
	// ErrNotFound indicates the order or item does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("invalid input")
	// ErrInsufficientStock indicates the requested quantity exceeds available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrIllegalTransition indicates a stage/status change not permitted from the current state.
	ErrIllegalTransition = errors.New("illegal transition")
	// ErrConcurrentModification indicates an optimistic write lost a race.
	ErrConcurrentModification = errors.New("concurrent modification, re-fetch and retry")
	// ErrStorageUnavailable indicates the storage layer kept failing after the internal retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrForbidden indicates the actor's role does not permit the action.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
