package matching

import "errors"

var (
	ErrInvalidSelfTarget = errors.New("cannot target yourself")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEdge     = errors.New("connection request already exists")
	ErrQuotaExceeded     = errors.New("quota exceeded")
	ErrBlocked           = errors.New("connection is blocked")
	ErrAlreadySent       = errors.New("reminder already sent")
	ErrInvalidState      = errors.New("connection request is not in a valid state for this action")

	// Boundary validation errors, returned by the Parse helpers.
	ErrInvalidKind     = errors.New("invalid like kind: must be interested or ignored")
	ErrInvalidDecision = errors.New("invalid decision: must be accepted or rejected")
)
