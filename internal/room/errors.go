package room

import "errors"

// Error taxonomy for room operations. All validation failures are returned
// synchronously; ErrConflict is the only error a caller should retry (re-read
// then retry once).
var (
	// ErrNotFound is returned when a room, member or lot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not valid for the
	// room's current status.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthorized is returned when a host-only operation is invoked by a
	// non-host member.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidBid is returned when a bid amount does not match the expected
	// next bid for the current lot.
	ErrInvalidBid = errors.New("invalid bid")

	// ErrConsecutiveBid is returned when the current highest bidder tries to
	// outbid themselves.
	ErrConsecutiveBid = errors.New("consecutive bid")

	// ErrInsufficientBudget is returned when a member cannot cover a bid or
	// sale price.
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrConflict is returned when an optimistic-concurrency write loses the
	// race against another writer.
	ErrConflict = errors.New("conflict")
)
