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

type promoCodePayload struct {
	ID            string `json:"id"`
	Code          string `json:"code"`
	Title         string `json:"title,omitempty"`
	Type          string `json:"type"`
	Value         int64  `json:"value"`
	Scope         string `json:"scope"`
	ScopeTarget   string `json:"scopeTarget,omitempty"`
	MinOrderValue int64  `json:"minOrderValue"`
	MaxDiscount   int64  `json:"maxDiscount"`
	UsageLimit    string `json:"usageLimit"`
	MaxUses       int64  `json:"maxUses"`
	UsedCount     int64  `json:"usedCount"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

type createPromoRequest struct {
	Code          string `json:"code"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	Value         int64  `json:"value"`
	Scope         string `json:"scope"`
	ScopeTarget   string `json:"scopeTarget"`
	MinOrderValue int64  `json:"minOrderValue"`
	MaxDiscount   int64  `json:"maxDiscount"`
	UsageLimit    string `json:"usageLimit"`
	MaxUses       int64  `json:"maxUses"`
	Active        bool   `json:"active"`
}

type createPromoBatchRequest struct {
	Prefix        string `json:"prefix"`
	Count         int    `json:"count"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	Value         int64  `json:"value"`
	Scope         string `json:"scope"`
	ScopeTarget   string `json:"scopeTarget"`
	MinOrderValue int64  `json:"minOrderValue"`
	MaxDiscount   int64  `json:"maxDiscount"`
}

type setPromoActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AdminHandlers) listPromoCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promo_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	promos, err := h.promotions.List(ctx)
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	payload := make([]promoCodePayload, 0, len(promos))
	for _, promo := range promos {
		payload = append(payload, buildPromoPayload(promo))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"promoCodes": payload})
}

func (h *AdminHandlers) createPromoCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promo_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createPromoRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	promo, err := h.promotions.Create(ctx, services.CreatePromoCommand{
		Code:          req.Code,
		Title:         req.Title,
		Type:          domain.DiscountType(strings.TrimSpace(req.Type)),
		Value:         req.Value,
		Scope:         domain.PromoScope(strings.TrimSpace(req.Scope)),
		ScopeTarget:   req.ScopeTarget,
		MinOrderValue: req.MinOrderValue,
		MaxDiscount:   req.MaxDiscount,
		Usage:         domain.UsageLimit(strings.TrimSpace(req.UsageLimit)),
		MaxUses:       req.MaxUses,
		Active:        req.Active,
	})
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildPromoPayload(promo))
}

func (h *AdminHandlers) createPromoBatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promo_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createPromoBatchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	promos, err := h.promotions.CreateBatch(ctx, services.CreatePromoBatchCommand{
		Prefix:        req.Prefix,
		Count:         req.Count,
		Title:         req.Title,
		Type:          domain.DiscountType(strings.TrimSpace(req.Type)),
		Value:         req.Value,
		Scope:         domain.PromoScope(strings.TrimSpace(req.Scope)),
		ScopeTarget:   req.ScopeTarget,
		MinOrderValue: req.MinOrderValue,
		MaxDiscount:   req.MaxDiscount,
	})
	if err != nil {
		writePromotionError(ctx, w, err)
		return
	}

	payload := make([]promoCodePayload, 0, len(promos))
	for _, promo := range promos {
		payload = append(payload, buildPromoPayload(promo))
	}
	writeJSONResponse(w, http.StatusCreated, map[string]any{"promoCodes": payload})
}

func (h *AdminHandlers) setPromoActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promo_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req setPromoActiveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	if err := h.promotions.SetActive(ctx, chi.URLParam(r, "promoID"), req.Active); err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) deletePromoCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.promotions == nil {
		httpx.WriteError(ctx, w, httpx.NewError("promo_service_unavailable", "promotion service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.promotions.Delete(ctx, chi.URLParam(r, "promoID")); err != nil {
		writePromotionError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func buildPromoPayload(promo services.PromoCode) promoCodePayload {
	return promoCodePayload{
		ID:            promo.ID,
		Code:          promo.Code,
		Title:         promo.Title,
		Type:          string(promo.Type),
		Value:         promo.Value,
		Scope:         string(promo.Scope),
		ScopeTarget:   promo.ScopeTarget,
		MinOrderValue: promo.MinOrderValue,
		MaxDiscount:   promo.MaxDiscount,
		UsageLimit:    string(promo.Usage),
		MaxUses:       promo.MaxUses,
		UsedCount:     promo.UsedCount,
		Active:        promo.Active,
		CreatedAt:     formatTime(promo.CreatedAt),
		UpdatedAt:     formatTime(promo.UpdatedAt),
	}
}

func writePromotionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPromotionInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrPromotionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("promo_not_found", "promo code not found", http.StatusNotFound))
	case errors.Is(err, services.ErrPromotionConflict):
		httpx.WriteError(ctx, w, httpx.NewError("promo_conflict", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPromotionRedemptionConflict):
		httpx.WriteError(ctx, w, httpx.NewError("promo_redemption_conflict", "promo code fully redeemed", http.StatusConflict))
	case errors.Is(err, services.ErrPromotionMinOrderNotMet):
		httpx.WriteError(ctx, w, httpx.NewError("promo_min_order_not_met", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("promo_invalid", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrPromotionUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("promo_unavailable", "promo code ledger unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("promo_error", "failed to process promo code request", http.StatusInternalServerError))
	}
}
