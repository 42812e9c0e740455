package services

import "errors"

// Caller-fault and precondition errors surfaced by interactive entry
// points; handlers map these onto HTTP status codes.
var (
	ErrInvalidAmount         = errors.New("amount must be a positive number")
	ErrProviderNotConfigured = errors.New("payment provider is not configured")
	ErrBookingNotFound       = errors.New("booking not found")
)
