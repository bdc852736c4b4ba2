package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/repositories"
)

const (
	trackingIDPrefix      = "AYV-"
	trackingIDLength      = 6
	trackingIDMaxAttempts = 5
)

var (
	// ErrCheckoutInvalidInput signals bad cart, contact, or shipping data.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrProductNotFound indicates a cart line references an unknown product.
	ErrProductNotFound = errors.New("checkout: product not found")
	// ErrCheckoutUnavailable indicates the catalogue could not be read.
	ErrCheckoutUnavailable = errors.New("checkout: catalogue unavailable")
	// ErrOrderPersistence indicates the order could not be durably saved.
	ErrOrderPersistence = errors.New("checkout: order persistence failure")
)

// CheckoutServiceDeps bundles collaborators required to construct a CheckoutService.
type CheckoutServiceDeps struct {
	Products   repositories.ProductRepository
	Orders     repositories.OrderRepository
	Settings   repositories.SettingsRepository
	Promotions PromotionService
	Pricing    *PricingEngine
	Events     OrderEventPublisher
	Clock      func() time.Time
	// TrackingID returns a candidate tracking id. Collisions are retried.
	TrackingID func() string
	Logger     func(context.Context, string, map[string]any)
}

type checkoutService struct {
	products   repositories.ProductRepository
	orders     repositories.OrderRepository
	settings   repositories.SettingsRepository
	promotions PromotionService
	pricing    *PricingEngine
	events     OrderEventPublisher
	clock      func() time.Time
	trackingID func() string
	logger     func(context.Context, string, map[string]any)
}

// NewCheckoutService wires dependencies into a concrete CheckoutService implementation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Products == nil {
		return nil, errors.New("checkout service: product repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("checkout service: order repository is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("checkout service: settings repository is required")
	}
	if deps.Promotions == nil {
		return nil, errors.New("checkout service: promotion service is required")
	}

	pricing := deps.Pricing
	if pricing == nil {
		pricing = NewPricingEngine()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	trackingID := deps.TrackingID
	if trackingID == nil {
		trackingID = func() string {
			return trackingIDPrefix + randomPromoChars(trackingIDLength)
		}
	}

	return &checkoutService{
		products:   deps.Products,
		orders:     deps.Orders,
		settings:   deps.Settings,
		promotions: deps.Promotions,
		pricing:    pricing,
		events:     deps.Events,
		clock:      func() time.Time { return clock().UTC() },
		trackingID: trackingID,
		logger:     deps.Logger,
	}, nil
}

func (s *checkoutService) Quote(ctx context.Context, cmd QuoteCommand) (QuoteResult, error) {
	items, err := s.resolveItems(ctx, cmd.Items)
	if err != nil {
		return QuoteResult{}, err
	}

	priced, err := s.price(ctx, items, cmd.PromoCode, cmd.Gift)
	if err != nil {
		return QuoteResult{}, err
	}
	return priced, nil
}

func (s *checkoutService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error) {
	if err := validateContact(cmd.Contact); err != nil {
		return Order{}, err
	}
	if err := validateShipping(cmd.Shipping); err != nil {
		return Order{}, err
	}

	items, err := s.resolveItems(ctx, cmd.Items)
	if err != nil {
		return Order{}, err
	}

	// The breakdown is always recomputed server-side; client totals are never
	// trusted.
	priced, err := s.price(ctx, items, cmd.PromoCode, cmd.Gift)
	if err != nil {
		return Order{}, err
	}

	now := s.clock()
	order := domain.Order{
		Items:     priced.Items,
		Contact:   trimContact(cmd.Contact),
		Shipping:  trimShipping(cmd.Shipping),
		Gift:      cmd.Gift,
		Breakdown: priced.Breakdown,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if priced.Promo != nil {
		order.PromoCode = priced.Promo.Code
	}

	persisted, err := s.insertWithFreshTrackingID(ctx, order)
	if err != nil {
		return Order{}, err
	}

	// The order is durable from here on. Redemption and event publishing are
	// best effort and never roll it back.
	if persisted.PromoCode != "" {
		if err := s.promotions.RecordRedemption(ctx, persisted.PromoCode); err != nil {
			s.log(ctx, "checkout.redemption_failed", map[string]any{
				"trackingId": persisted.TrackingID,
				"code":       persisted.PromoCode,
				"error":      err.Error(),
			})
		}
	}
	s.publishOrderEvent(ctx, persisted)

	return persisted, nil
}

// resolveItems snapshots catalogue data into order line items so later
// catalogue edits never change an existing order.
func (s *checkoutService) resolveItems(ctx context.Context, items []QuoteItem) ([]domain.LineItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrCheckoutInvalidInput)
	}

	resolved := make([]domain.LineItem, 0, len(items))
	for idx, item := range items {
		productID := strings.TrimSpace(item.ProductID)
		if productID == "" {
			return nil, fmt.Errorf("%w: item %d product id is required", ErrCheckoutInvalidInput, idx)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", ErrCheckoutInvalidInput, idx)
		}

		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			var repoErr repositories.RepositoryError
			if errors.As(err, &repoErr) && repoErr.IsNotFound() {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
			}
			return nil, fmt.Errorf("%w: %v", ErrCheckoutUnavailable, err)
		}

		price := product.Price
		size := strings.TrimSpace(item.Size)
		if size != "" {
			variantPrice, ok := sizePrice(product, size)
			if !ok {
				return nil, fmt.Errorf("%w: product %s has no size %s", ErrCheckoutInvalidInput, productID, size)
			}
			price = variantPrice
		}

		resolved = append(resolved, domain.LineItem{
			ProductID: product.ID,
			Name:      product.Name,
			Brand:     product.Brand,
			Category:  product.Category,
			Size:      size,
			UnitPrice: price,
			Quantity:  item.Quantity,
			ImageURL:  product.ImageURL,
		})
	}
	return resolved, nil
}

func (s *checkoutService) price(ctx context.Context, items []domain.LineItem, promoCode string, gift domain.GiftOptions) (QuoteResult, error) {
	fees := s.feeConfig(ctx)

	var subtotal int64
	for _, item := range items {
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	var promo *domain.PromoCode
	var applied *AppliedPromo
	if code := strings.TrimSpace(promoCode); code != "" {
		validated, err := s.promotions.Validate(ctx, code, subtotal)
		if err != nil {
			return QuoteResult{}, err
		}
		promo = &validated
	}

	breakdown, err := s.pricing.ComputeBreakdown(ctx, PricingInput{
		Items: items,
		Promo: promo,
		Fees:  fees,
		Gift:  gift,
	})
	if err != nil {
		return QuoteResult{}, err
	}

	if promo != nil {
		applied = &AppliedPromo{
			Code:     promo.Code,
			Title:    promo.Title,
			Discount: breakdown.Discount,
		}
	}

	return QuoteResult{
		Items:     items,
		Breakdown: breakdown,
		Promo:     applied,
	}, nil
}

// feeConfig loads the store fee schedule, falling back to the defaults when
// the settings document is missing or unreadable. Checkout keeps working on
// the published default fees rather than failing the whole request.
func (s *checkoutService) feeConfig(ctx context.Context) domain.FeeConfig {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		var repoErr repositories.RepositoryError
		if !errors.As(err, &repoErr) || !repoErr.IsNotFound() {
			s.log(ctx, "checkout.settings_fallback", map[string]any{"error": err.Error()})
		}
		return domain.DefaultStoreSettings().Fees
	}
	return settings.Fees
}

func (s *checkoutService) insertWithFreshTrackingID(ctx context.Context, order domain.Order) (domain.Order, error) {
	for attempt := 0; attempt < trackingIDMaxAttempts; attempt++ {
		order.TrackingID = s.trackingID()
		err := s.orders.Insert(ctx, order)
		if err == nil {
			return order, nil
		}

		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsConflict() {
			s.log(ctx, "checkout.tracking_id_collision", map[string]any{
				"trackingId": order.TrackingID,
				"attempt":    attempt + 1,
			})
			continue
		}
		return domain.Order{}, fmt.Errorf("%w: %v", ErrOrderPersistence, err)
	}
	return domain.Order{}, fmt.Errorf("%w: tracking id space exhausted after %d attempts", ErrOrderPersistence, trackingIDMaxAttempts)
}

func (s *checkoutService) publishOrderEvent(ctx context.Context, order domain.Order) {
	if s.events == nil {
		return
	}
	itemCount := 0
	for _, item := range order.Items {
		itemCount += item.Quantity
	}
	_, err := s.events.PublishOrderEvent(ctx, OrderEventMessage{
		TrackingID: order.TrackingID,
		Status:     string(order.Status),
		Total:      order.Breakdown.Total,
		PromoCode:  order.PromoCode,
		ItemCount:  itemCount,
		OccurredAt: s.clock(),
	})
	if err != nil {
		s.log(ctx, "checkout.event_publish_failed", map[string]any{
			"trackingId": order.TrackingID,
			"error":      err.Error(),
		})
	}
}

func sizePrice(product domain.Product, size string) (int64, bool) {
	for _, variant := range product.Sizes {
		if strings.EqualFold(variant.Size, size) {
			return variant.Price, true
		}
	}
	return 0, false
}

func validateContact(contact domain.ContactDetails) error {
	if strings.TrimSpace(contact.Name) == "" {
		return fmt.Errorf("%w: contact name is required", ErrCheckoutInvalidInput)
	}
	email := strings.TrimSpace(contact.Email)
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: valid contact email is required", ErrCheckoutInvalidInput)
	}
	if strings.TrimSpace(contact.Phone) == "" {
		return fmt.Errorf("%w: contact phone is required", ErrCheckoutInvalidInput)
	}
	return nil
}

func validateShipping(address domain.ShippingAddress) error {
	if strings.TrimSpace(address.Line1) == "" {
		return fmt.Errorf("%w: address line is required", ErrCheckoutInvalidInput)
	}
	if strings.TrimSpace(address.City) == "" {
		return fmt.Errorf("%w: city is required", ErrCheckoutInvalidInput)
	}
	if strings.TrimSpace(address.PostalCode) == "" {
		return fmt.Errorf("%w: postal code is required", ErrCheckoutInvalidInput)
	}
	return nil
}

func trimContact(contact domain.ContactDetails) domain.ContactDetails {
	return domain.ContactDetails{
		Name:  strings.TrimSpace(contact.Name),
		Email: strings.TrimSpace(contact.Email),
		Phone: strings.TrimSpace(contact.Phone),
	}
}

func trimShipping(address domain.ShippingAddress) domain.ShippingAddress {
	country := strings.TrimSpace(address.Country)
	if country == "" {
		country = "India"
	}
	return domain.ShippingAddress{
		Line1:      strings.TrimSpace(address.Line1),
		Line2:      strings.TrimSpace(address.Line2),
		City:       strings.TrimSpace(address.City),
		State:      strings.TrimSpace(address.State),
		PostalCode: strings.TrimSpace(address.PostalCode),
		Country:    country,
	}
}

func (s *checkoutService) log(ctx context.Context, event string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger(ctx, event, fields)
}
