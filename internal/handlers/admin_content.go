package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/platform/httpx"
	"github.com/ayvora/api/internal/services"
)

type saveBannerRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl"`
	Order    int    `json:"order"`
	Active   bool   `json:"active"`
}

type saveSettingsRequest struct {
	Fees         feesPayload `json:"fees"`
	Announcement string      `json:"announcement"`
	ReturnPolicy string      `json:"returnPolicy"`
}

func (h *AdminHandlers) listBanners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	banners, err := h.content.AllBanners(ctx)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	payload := make([]bannerPayload, 0, len(banners))
	for _, banner := range banners {
		payload = append(payload, buildBannerPayload(banner))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"banners": payload})
}

func (h *AdminHandlers) createBanner(w http.ResponseWriter, r *http.Request) {
	h.saveBanner(w, r, "")
}

func (h *AdminHandlers) updateBanner(w http.ResponseWriter, r *http.Request) {
	h.saveBanner(w, r, chi.URLParam(r, "bannerID"))
}

func (h *AdminHandlers) saveBanner(w http.ResponseWriter, r *http.Request, bannerID string) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req saveBannerRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	banner, err := h.content.SaveBanner(ctx, services.SaveBannerCommand{
		ID:       bannerID,
		Title:    req.Title,
		Subtitle: req.Subtitle,
		ImageURL: req.ImageURL,
		LinkURL:  req.LinkURL,
		Order:    req.Order,
		Active:   req.Active,
	})
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if bannerID == "" {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, buildBannerPayload(banner))
}

func (h *AdminHandlers) deleteBanner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.content.DeleteBanner(ctx, chi.URLParam(r, "bannerID")); err != nil {
		writeContentError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) saveSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req saveSettingsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	settings, err := h.content.SaveSettings(ctx, domain.StoreSettings{
		Fees: domain.FeeConfig{
			DeliveryCharge:        req.Fees.DeliveryCharge,
			FreeDeliveryThreshold: req.Fees.FreeDeliveryThreshold,
			WrappingFee:           req.Fees.WrappingFee,
		},
		Announcement: req.Announcement,
		ReturnPolicy: req.ReturnPolicy,
	})
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, buildSettingsPayload(settings))
}

func (h *AdminHandlers) deleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.content.DeleteReview(ctx, chi.URLParam(r, "reviewID")); err != nil {
		writeContentError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
