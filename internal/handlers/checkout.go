package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/platform/httpx"
	"github.com/ayvora/api/internal/services"
)

const maxCheckoutRequestBody = 64 * 1024

// CheckoutHandlers exposes the quote and order placement endpoints. Checkout
// is anonymous: the storefront sends the full cart with every request.
type CheckoutHandlers struct {
	checkout      services.CheckoutService
	promosEnabled bool
}

// CheckoutOption customises checkout handler behaviour.
type CheckoutOption func(*CheckoutHandlers)

// WithPromotionsEnabled toggles promo code acceptance. When disabled, requests
// carrying a promo code are rejected before reaching the ledger.
func WithPromotionsEnabled(enabled bool) CheckoutOption {
	return func(h *CheckoutHandlers) {
		h.promosEnabled = enabled
	}
}

// NewCheckoutHandlers constructs checkout handlers.
func NewCheckoutHandlers(checkout services.CheckoutService, opts ...CheckoutOption) *CheckoutHandlers {
	h := &CheckoutHandlers{checkout: checkout, promosEnabled: true}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/quote", h.quote)
	r.Post("/orders", h.placeOrder)
}

type cartItemRequest struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type giftRequest struct {
	IsGift   bool   `json:"isGift"`
	WrapGift bool   `json:"wrapGift"`
	Note     string `json:"note"`
}

type quoteRequest struct {
	Items     []cartItemRequest `json:"items"`
	PromoCode string            `json:"promoCode"`
	Gift      giftRequest       `json:"gift"`
}

type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type shippingRequest struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type placeOrderRequest struct {
	quoteRequest
	Contact  contactRequest  `json:"contact"`
	Shipping shippingRequest `json:"shipping"`
}

type lineItemPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand,omitempty"`
	Category  string `json:"category"`
	Size      string `json:"size,omitempty"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type breakdownPayload struct {
	Subtotal           int64 `json:"subtotal"`
	ApplicableSubtotal int64 `json:"applicableSubtotal"`
	Discount           int64 `json:"discount"`
	Shipping           int64 `json:"shipping"`
	GiftWrapFee        int64 `json:"giftWrapFee"`
	Total              int64 `json:"total"`
}

type appliedPromoPayload struct {
	Code     string `json:"code"`
	Title    string `json:"title,omitempty"`
	Discount int64  `json:"discount"`
}

type quoteResponse struct {
	Items     []lineItemPayload    `json:"items"`
	Breakdown breakdownPayload     `json:"breakdown"`
	Promo     *appliedPromoPayload `json:"promo,omitempty"`
}

type orderPayload struct {
	TrackingID string            `json:"trackingId"`
	Status     string            `json:"status"`
	Items      []lineItemPayload `json:"items"`
	Contact    contactRequest    `json:"contact"`
	Shipping   shippingRequest   `json:"shipping"`
	Gift       giftRequest       `json:"gift"`
	PromoCode  string            `json:"promoCode,omitempty"`
	Breakdown  breakdownPayload  `json:"breakdown"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`
}

func (h *CheckoutHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req quoteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if !h.allowPromo(ctx, w, req.PromoCode) {
		return
	}

	result, err := h.checkout.Quote(ctx, services.QuoteCommand{
		Items:     buildQuoteItems(req.Items),
		PromoCode: req.PromoCode,
		Gift:      buildGiftOptions(req.Gift),
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildQuoteResponse(result))
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req placeOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}
	if !h.allowPromo(ctx, w, req.PromoCode) {
		return
	}

	order, err := h.checkout.PlaceOrder(ctx, services.PlaceOrderCommand{
		Items:     buildQuoteItems(req.Items),
		PromoCode: req.PromoCode,
		Gift:      buildGiftOptions(req.Gift),
		Contact: domain.ContactDetails{
			Name:  req.Contact.Name,
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
		},
		Shipping: domain.ShippingAddress{
			Line1:      req.Shipping.Line1,
			Line2:      req.Shipping.Line2,
			City:       req.Shipping.City,
			State:      req.Shipping.State,
			PostalCode: req.Shipping.PostalCode,
			Country:    req.Shipping.Country,
		},
	})
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *CheckoutHandlers) allowPromo(ctx context.Context, w http.ResponseWriter, code string) bool {
	if h.promosEnabled || strings.TrimSpace(code) == "" {
		return true
	}
	httpx.WriteError(ctx, w, httpx.NewError("promo_invalid", "promo codes are currently disabled", http.StatusUnprocessableEntity))
	return false
}

func buildQuoteItems(items []cartItemRequest) []services.QuoteItem {
	out := make([]services.QuoteItem, 0, len(items))
	for _, item := range items {
		out = append(out, services.QuoteItem{
			ProductID: strings.TrimSpace(item.ProductID),
			Size:      strings.TrimSpace(item.Size),
			Quantity:  item.Quantity,
		})
	}
	return out
}

func buildGiftOptions(gift giftRequest) domain.GiftOptions {
	return domain.GiftOptions{
		IsGift:   gift.IsGift,
		WrapGift: gift.WrapGift,
		Note:     strings.TrimSpace(gift.Note),
	}
}

func buildLineItemPayloads(items []services.LineItem) []lineItemPayload {
	out := make([]lineItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, lineItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Brand:     item.Brand,
			Category:  string(item.Category),
			Size:      item.Size,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return out
}

func buildBreakdownPayload(breakdown domain.PriceBreakdown) breakdownPayload {
	return breakdownPayload{
		Subtotal:           breakdown.Subtotal,
		ApplicableSubtotal: breakdown.ApplicableSubtotal,
		Discount:           breakdown.Discount,
		Shipping:           breakdown.Shipping,
		GiftWrapFee:        breakdown.GiftWrapFee,
		Total:              breakdown.Total,
	}
}

func buildQuoteResponse(result services.QuoteResult) quoteResponse {
	resp := quoteResponse{
		Items:     buildLineItemPayloads(result.Items),
		Breakdown: buildBreakdownPayload(result.Breakdown),
	}
	if result.Promo != nil {
		resp.Promo = &appliedPromoPayload{
			Code:     result.Promo.Code,
			Title:    result.Promo.Title,
			Discount: result.Promo.Discount,
		}
	}
	return resp
}

func buildOrderPayload(order services.Order) orderPayload {
	return orderPayload{
		TrackingID: order.TrackingID,
		Status:     string(order.Status),
		Items:      buildLineItemPayloads(order.Items),
		Contact: contactRequest{
			Name:  order.Contact.Name,
			Email: order.Contact.Email,
			Phone: order.Contact.Phone,
		},
		Shipping: shippingRequest{
			Line1:      order.Shipping.Line1,
			Line2:      order.Shipping.Line2,
			City:       order.Shipping.City,
			State:      order.Shipping.State,
			PostalCode: order.Shipping.PostalCode,
			Country:    order.Shipping.Country,
		},
		Gift: giftRequest{
			IsGift:   order.Gift.IsGift,
			WrapGift: order.Gift.WrapGift,
			Note:     order.Gift.Note,
		},
		PromoCode: order.PromoCode,
		Breakdown: buildBreakdownPayload(order.Breakdown),
		CreatedAt: formatTime(order.CreatedAt),
		UpdatedAt: formatTime(order.UpdatedAt),
	}
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "one or more cart items no longer exist", http.StatusNotFound))
	case errors.Is(err, services.ErrPromotionMinOrderNotMet):
		httpx.WriteError(ctx, w, httpx.NewError("promo_min_order_not_met", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("promo_invalid", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("promo_unavailable", "promo code ledger unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrOrderPersistence):
		httpx.WriteError(ctx, w, httpx.NewError("order_persistence_failed", "order could not be saved; nothing was charged", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout request", http.StatusInternalServerError))
	}
}
