package services

import "errors"

// Business-rule errors surfaced by the tracking and payout services. Handlers
// map these to HTTP statuses with errors.Is; anything else is a 500.
var (
	ErrInvalidReferralCode = errors.New("invalid or inactive referral code")
	ErrExpiredReferralCode = errors.New("referral code has expired")
	ErrAgentUnavailable    = errors.New("agent not found or inactive")
	ErrDuplicateReferral   = errors.New("customer already referred by this agent")
	ErrStaleSelection      = errors.New("some commissions are invalid or already included in a payout")
	ErrEmptySelection      = errors.New("no commissions selected")
	ErrInvalidFile         = errors.New("invalid bank transfer file")
	ErrPayoutNotFound      = errors.New("payout not found")
	ErrPayoutAlreadyPaid   = errors.New("payout has already been paid")
)
