package services

import "errors"

var (
	// ErrPromotionInvalid indicates the code does not exist, is inactive, or is fully redeemed.
	ErrPromotionInvalid = errors.New("promotion: invalid code")
	// ErrPromotionMinOrderNotMet indicates the cart subtotal is below the code's minimum order value.
	ErrPromotionMinOrderNotMet = errors.New("promotion: minimum order value not met")
	// ErrPromotionUnavailable indicates the ledger could not be read or written.
	ErrPromotionUnavailable = errors.New("promotion: ledger unavailable")
	// ErrPromotionRedemptionConflict indicates the last redemption slot was taken concurrently.
	ErrPromotionRedemptionConflict = errors.New("promotion: redemption conflict")
	// ErrPromotionInvalidInput indicates validation failures for promotion admin operations.
	ErrPromotionInvalidInput = errors.New("promotion: invalid input")
	// ErrPromotionConflict indicates a duplicate code or id.
	ErrPromotionConflict = errors.New("promotion: conflict")
	// ErrPromotionNotFound indicates the ledger entry does not exist.
	ErrPromotionNotFound = errors.New("promotion: not found")
)
