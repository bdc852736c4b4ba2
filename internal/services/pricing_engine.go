package services

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/ayvora/api/internal/domain"
)

// ErrPricingInvalidInput signals bad pricing data such as negative prices or quantities.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// PricingInput carries everything the engine needs to price a cart. The promo
// is the already-validated ledger entry, or nil when no code applies.
type PricingInput struct {
	Items []domain.LineItem
	Promo *domain.PromoCode
	Fees  domain.FeeConfig
	Gift  domain.GiftOptions
}

// PricingEngine computes checkout price breakdowns. It is a pure calculator:
// it never reads persistence and never mutates the promo ledger.
type PricingEngine struct {
	logger func(context.Context, string, map[string]any)
}

// PricingEngineOption customises engine construction.
type PricingEngineOption func(*PricingEngine)

// WithPricingLogger attaches a structured logging hook.
func WithPricingLogger(logger func(context.Context, string, map[string]any)) PricingEngineOption {
	return func(e *PricingEngine) {
		e.logger = logger
	}
}

// NewPricingEngine constructs the checkout pricing engine.
func NewPricingEngine(opts ...PricingEngineOption) *PricingEngine {
	engine := &PricingEngine{}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine
}

// ComputeBreakdown prices the cart. All amounts are whole rupees.
func (e *PricingEngine) ComputeBreakdown(ctx context.Context, input PricingInput) (domain.PriceBreakdown, error) {
	if err := validatePricingInput(input); err != nil {
		return domain.PriceBreakdown{}, err
	}

	var breakdown domain.PriceBreakdown
	for _, item := range input.Items {
		breakdown.Subtotal += item.UnitPrice * int64(item.Quantity)
	}

	breakdown.ApplicableSubtotal = applicableSubtotal(input.Items, input.Promo, breakdown.Subtotal)
	breakdown.Discount = discountAmount(input.Promo, breakdown.ApplicableSubtotal)

	// A zero threshold means every order ships free.
	if breakdown.Subtotal >= input.Fees.FreeDeliveryThreshold {
		breakdown.Shipping = 0
	} else {
		breakdown.Shipping = input.Fees.DeliveryCharge
	}

	if input.Gift.IsGift && input.Gift.WrapGift {
		breakdown.GiftWrapFee = input.Fees.WrappingFee
	}

	total := breakdown.Subtotal - breakdown.Discount + breakdown.Shipping + breakdown.GiftWrapFee
	if total < 0 {
		total = 0
	}
	breakdown.Total = total

	e.log(ctx, "pricing.computed", map[string]any{
		"subtotal": breakdown.Subtotal,
		"discount": breakdown.Discount,
		"total":    breakdown.Total,
	})

	return breakdown, nil
}

func validatePricingInput(input PricingInput) error {
	for idx, item := range input.Items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item %d quantity must be positive", ErrPricingInvalidInput, idx)
		}
		if item.UnitPrice < 0 {
			return fmt.Errorf("%w: item %d price must not be negative", ErrPricingInvalidInput, idx)
		}
	}
	if input.Fees.DeliveryCharge < 0 || input.Fees.FreeDeliveryThreshold < 0 || input.Fees.WrappingFee < 0 {
		return fmt.Errorf("%w: fees must not be negative", ErrPricingInvalidInput)
	}
	if input.Promo != nil && input.Promo.Value < 0 {
		return fmt.Errorf("%w: promo value must not be negative", ErrPricingInvalidInput)
	}
	return nil
}

// applicableSubtotal narrows the subtotal to items matching the promo scope:
// the ScopeTarget category or product id. A scope mismatch yields zero, which
// in turn yields a zero discount.
func applicableSubtotal(items []domain.LineItem, promo *domain.PromoCode, subtotal int64) int64 {
	if promo == nil {
		return subtotal
	}

	var matches func(domain.LineItem) bool
	switch promo.Scope {
	case domain.ScopeCategory:
		matches = func(item domain.LineItem) bool { return string(item.Category) == promo.ScopeTarget }
	case domain.ScopeProduct:
		matches = func(item domain.LineItem) bool { return item.ProductID == promo.ScopeTarget }
	default:
		// ScopeAll, or a promo minted before scopes existed.
		return subtotal
	}

	var applicable int64
	for _, item := range items {
		if matches(item) {
			applicable += item.UnitPrice * int64(item.Quantity)
		}
	}
	return applicable
}

func discountAmount(promo *domain.PromoCode, applicable int64) int64 {
	if promo == nil || applicable <= 0 {
		return 0
	}

	var discount int64
	switch promo.Type {
	case domain.DiscountPercentage:
		// Round half up on the rupee.
		discount = (applicable*promo.Value + 50) / 100
		if promo.MaxDiscount > 0 && discount > promo.MaxDiscount {
			discount = promo.MaxDiscount
		}
	case domain.DiscountFixed:
		discount = promo.Value
	default:
		return 0
	}

	if discount > applicable {
		discount = applicable
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func (e *PricingEngine) log(ctx context.Context, event string, fields map[string]any) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger(ctx, event, fields)
}
