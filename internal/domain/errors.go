package domain

import "errors"

// Validation errors: malformed or missing input, surfaced synchronously.
var (
	ErrNegativePrice  = errors.New("Price is negative")
	ErrMissingFields  = errors.New("Price, description, and title are required")
	ErrInvalidEmail   = errors.New("Invalid email format")
	ErrInvalidAmount  = errors.New("Amount must be non-negative")
	ErrInvalidBalance = errors.New("Invalid balance value")
)

// Not-found errors: unknown listing, account or group.
var (
	ErrListingNotFound = errors.New("Listing not found")
	ErrNoListings      = errors.New("No listings found")
	ErrAccountNotFound = errors.New("Account not found")
	ErrGroupNotFound   = errors.New("Group not found")
)

// Precondition failures: raised as hard errors where safety is at stake.
var (
	ErrNoValidatorAvailable   = errors.New("No antiquarian available")
	ErrNoReplacementValidator = errors.New("No other antiquarian found")
	ErrCannotDisableAdmin     = errors.New("Cannot disable an admin user")
	ErrSelfValidation         = errors.New("Seller cannot validate their own listing")
	ErrAlreadySold            = errors.New("Listing already sold")
)

// External-dependency errors.
var (
	ErrPaymentNotApproved = errors.New("Payment not approved")
	// ErrPartialCredit marks a settlement that credited the antiquarian but
	// failed before crediting the seller. Retriable; never swallowed.
	ErrPartialCredit = errors.New("Ledger partially credited")
)
