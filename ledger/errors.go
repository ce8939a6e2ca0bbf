package ledger

import "errors"

// Sentinel errors for the ledger and the domain operations built on top of
// it. Callers classify with errors.Is and map to transport-level responses;
// wrapped context is added with github.com/pkg/errors at the raise site.
var (
	// ErrUserNotFound is returned when a delta references a user that does
	// not exist in the store.
	ErrUserNotFound = errors.New("user not found")

	// ErrPostNotFound is returned by post-scoped operations on a missing
	// post id.
	ErrPostNotFound = errors.New("post not found")

	// ErrInsufficientBalance is returned when a send-type delta would push
	// a balance below zero. Detected before any row is written, or by the
	// guarded update inside the transaction, in either case nothing is
	// committed.
	ErrInsufficientBalance = errors.New("insufficient points balance")

	// ErrInvalidDeltaSet means the caller constructed deltas that don't
	// sum to zero. This is a programming error, not a user error.
	ErrInvalidDeltaSet = errors.New("transfer deltas do not sum to zero")

	// ErrInvalidPoints is returned when a post's denomination is not one
	// of AllowedPoints.
	ErrInvalidPoints = errors.New("invalid points amount")

	// ErrInvalidInput covers missing content, missing recipient and other
	// malformed requests.
	ErrInvalidInput = errors.New("invalid input")
)
