package models

import "errors"

// Domain errors. Services return these; handlers map them onto HTTP status
// codes in one place.
var (
	ErrChallengeLimit      = errors.New("maximum active challenges reached")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrChallengeNotActive  = errors.New("challenge is not active")
	ErrChallengeNotExpired = errors.New("challenge is not expired")
	ErrUnknownProduct      = errors.New("unknown challenge tier or difficulty")
	ErrPaymentDeclined     = errors.New("reset fee payment was declined")

	ErrBetNotFound       = errors.New("bet not found")
	ErrBetAlreadySettled = errors.New("bet already settled with a different result")
	ErrOddsBelowMinimum  = errors.New("bet odds below challenge minimum")

	ErrPayoutNotFound          = errors.New("payout not found")
	ErrPayoutBelowMinimum      = errors.New("payout amount below minimum")
	ErrInsufficientBalance     = errors.New("insufficient available balance")
	ErrInvalidPayoutDetails    = errors.New("missing or invalid payout details")
	ErrInvalidStatusTransition = errors.New("invalid payout status transition")

	ErrTransientConflict = errors.New("transient conflict, retry the request")
)
