package service

import "errors"

// Service-level sentinel errors. Store-level conditions
// (insufficient funds, posting limit, missing rows) surface as the
// repository package's sentinels and pass through unchanged.
var (
	// ErrPlanExpired is returned when entitlement evaluation denies
	// posting because the plan window has ended; the wrapped message
	// carries the evaluator's reason so callers can route the user to
	// the upgrade page.
	ErrPlanExpired = errors.New("plan expired")
	// ErrInvalidPlan is returned for unknown plan names and for
	// payment amounts that map to no catalog entry.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrInvalidAmount rejects non-positive wallet amounts.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidSignature is returned when a gateway confirmation or
	// webhook fails HMAC verification.
	ErrInvalidSignature = errors.New("invalid payment signature")
)
