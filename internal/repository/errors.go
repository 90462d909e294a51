package repository

import "errors"

// Store-level sentinel errors. Conditional updates surface these when
// their precondition fails, so callers never see a partially applied
// mutation.
var (
	ErrAccountNotFound = errors.New("account_not_found")
	ErrListingNotFound = errors.New("listing_not_found")
	// ErrInsufficientFunds is returned when a debit would take the
	// wallet balance below zero.
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrPostingLimitReached is returned when the quota increment's
	// guard (ads_posted_in_period < max_ads_allowed) does not hold.
	ErrPostingLimitReached = errors.New("posting_limit_reached")
	// ErrConflict is returned when an insert collides with an
	// existing row, such as a repeated registration.
	ErrConflict = errors.New("conflict")
)
