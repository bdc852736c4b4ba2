package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/platform/auth"
	"github.com/ayvora/api/internal/platform/httpx"
	"github.com/ayvora/api/internal/services"
)

const maxAdminRequestBody = 256 * 1024

// AdminHandlers exposes the management surface: catalogue CRUD, promo code
// administration, order lifecycle, banners, settings, and review moderation.
// Every route requires a Firebase ID token carrying the admin role.
type AdminHandlers struct {
	authn      *auth.Authenticator
	catalog    services.CatalogService
	promotions services.PromotionService
	orders     services.OrderService
	content    services.ContentService
}

// AdminHandlersDeps bundles the services behind the admin surface.
type AdminHandlersDeps struct {
	Authenticator *auth.Authenticator
	Catalog       services.CatalogService
	Promotions    services.PromotionService
	Orders        services.OrderService
	Content       services.ContentService
}

// NewAdminHandlers constructs the admin handlers. An authenticator is
// mandatory; the management surface never registers without one.
func NewAdminHandlers(deps AdminHandlersDeps) (*AdminHandlers, error) {
	if deps.Authenticator == nil {
		return nil, errors.New("admin handlers: authenticator is required")
	}
	return &AdminHandlers{
		authn:      deps.Authenticator,
		catalog:    deps.Catalog,
		promotions: deps.Promotions,
		orders:     deps.Orders,
		content:    deps.Content,
	}, nil
}

// Routes registers the admin endpoints under the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))

	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{productID}", h.updateProduct)
	r.Delete("/products/{productID}", h.deleteProduct)
	r.Post("/products/uploads", h.issueUploadURL)

	r.Get("/promo-codes", h.listPromoCodes)
	r.Post("/promo-codes", h.createPromoCode)
	r.Post("/promo-codes/batch", h.createPromoBatch)
	r.Patch("/promo-codes/{promoID}", h.setPromoActive)
	r.Delete("/promo-codes/{promoID}", h.deletePromoCode)

	r.Get("/orders", h.listOrders)
	r.Patch("/orders/{trackingID}/status", h.updateOrderStatus)

	r.Get("/banners", h.listBanners)
	r.Post("/banners", h.createBanner)
	r.Put("/banners/{bannerID}", h.updateBanner)
	r.Delete("/banners/{bannerID}", h.deleteBanner)

	r.Put("/settings", h.saveSettings)

	r.Delete("/reviews/{reviewID}", h.deleteReview)
}

type listOrdersResponse struct {
	Orders []orderPayload `json:"orders"`
}

func (h *AdminHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	orders, err := h.orders.List(ctx, services.ListOrdersCommand{
		Status: domain.OrderStatus(strings.TrimSpace(query.Get("status"))),
		Limit:  parseQueryInt(query.Get("limit")),
	})
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	payload := listOrdersResponse{Orders: make([]orderPayload, 0, len(orders))}
	for _, order := range orders {
		payload.Orders = append(payload.Orders, buildOrderPayload(order))
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *AdminHandlers) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req updateOrderStatusRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	order, err := h.orders.UpdateStatus(ctx, chi.URLParam(r, "trackingID"), domain.OrderStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildOrderPayload(order))
}
