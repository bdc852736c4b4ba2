package domain

// PriceBreakdown captures the monetary components of a priced cart. All
// amounts are whole rupees. Total is never negative.
type PriceBreakdown struct {
	Subtotal           int64
	ApplicableSubtotal int64
	Discount           int64
	Shipping           int64
	GiftWrapFee        int64
	Total              int64
}
