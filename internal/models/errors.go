package models

import "errors"

// Business-rule failures are reported as wrapped sentinel errors so handlers
// can map them to distinct HTTP statuses with errors.Is.
var (
	// ErrInsufficientFunds is returned when a deduction or contribution exceeds
	// the student's current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for non-positive amounts, prices, or unit
	// counts. Amounts are never silently clamped.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrNotFound is returned when a referenced class, student, company, or
	// product does not exist. Distinct from validation failures so callers can
	// tell bad input from a stale reference.
	ErrNotFound = errors.New("not found")

	// ErrOverDistribution is returned when a profit distribution exceeds the
	// company's current profit.
	ErrOverDistribution = errors.New("distribution exceeds current profit")

	// ErrMissingFields is returned when a required field is absent or empty.
	ErrMissingFields = errors.New("missing required fields")
)
