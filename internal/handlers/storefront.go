package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/platform/httpx"
	"github.com/ayvora/api/internal/services"
)

const (
	maxReviewRequestBody = 16 * 1024
	defaultRequestBody   = 64 * 1024

	reviewRateLimit  = 5
	reviewRateWindow = time.Minute
)

// StorefrontHandlers exposes the anonymous storefront endpoints: catalogue,
// banners, store settings, and product reviews.
type StorefrontHandlers struct {
	catalog        services.CatalogService
	content        services.ContentService
	reviews        rateLimiter
	reviewsEnabled bool
}

// StorefrontOption customises storefront handler behaviour.
type StorefrontOption func(*StorefrontHandlers)

// WithReviewRateLimit overrides the per-client review submission limit per minute.
func WithReviewRateLimit(perMinute int) StorefrontOption {
	return func(h *StorefrontHandlers) {
		if perMinute > 0 {
			h.reviews = newFixedWindowLimiter(perMinute, reviewRateWindow, nil)
		}
	}
}

// WithReviewsEnabled toggles customer review submission.
func WithReviewsEnabled(enabled bool) StorefrontOption {
	return func(h *StorefrontHandlers) {
		h.reviewsEnabled = enabled
	}
}

// NewStorefrontHandlers constructs the public storefront handlers.
func NewStorefrontHandlers(catalog services.CatalogService, content services.ContentService, opts ...StorefrontOption) *StorefrontHandlers {
	h := &StorefrontHandlers{
		catalog:        catalog,
		content:        content,
		reviews:        newFixedWindowLimiter(reviewRateLimit, reviewRateWindow, nil),
		reviewsEnabled: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the storefront endpoints at the API root.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)
	r.Get("/products/{productID}/reviews", h.listReviews)
	r.Post("/products/{productID}/reviews", h.createReview)
	r.Get("/banners", h.listBanners)
	r.Get("/settings", h.getSettings)
}

func (h *StorefrontHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	limit := parseQueryInt(query.Get("limit"))

	var (
		products []services.Product
		err      error
	)
	switch {
	case parseQueryBool(query.Get("featured")):
		products, err = h.catalog.Featured(ctx, limit)
	case parseQueryBool(query.Get("new")):
		products, err = h.catalog.NewArrivals(ctx, limit)
	default:
		products, err = h.catalog.List(ctx, services.ListProductsCommand{
			Category: domain.ProductCategory(strings.TrimSpace(query.Get("category"))),
			Search:   query.Get("q"),
			Limit:    limit,
		})
	}
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"products": payload})
}

func (h *StorefrontHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	product, err := h.catalog.Get(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildProductPayload(product))
}

func (h *StorefrontHandlers) listReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	limit := parseQueryInt(r.URL.Query().Get("limit"))
	reviews, err := h.content.ListReviews(ctx, chi.URLParam(r, "productID"), limit)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	payload := make([]reviewPayload, 0, len(reviews))
	for _, review := range reviews {
		payload = append(payload, buildReviewPayload(review))
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"reviews": payload})
}

type createReviewRequest struct {
	Author  string `json:"author"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *StorefrontHandlers) createReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	if !h.reviewsEnabled {
		httpx.WriteError(ctx, w, httpx.NewError("reviews_disabled", "review submission is disabled", http.StatusForbidden))
		return
	}

	if h.reviews != nil && !h.reviews.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many reviews; try again later", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxReviewRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req createReviewRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	review, err := h.content.CreateReview(ctx, services.CreateReviewCommand{
		ProductID: chi.URLParam(r, "productID"),
		Author:    req.Author,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, buildReviewPayload(review))
}

func (h *StorefrontHandlers) listBanners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	banners, err := h.content.ActiveBanners(ctx)
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

func (h *StorefrontHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content service unavailable", http.StatusServiceUnavailable))
		return
	}

	settings, err := h.content.Settings(ctx)
	if err != nil {
		writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, buildSettingsPayload(settings))
}

type sizeVariantPayload struct {
	Size  string `json:"size"`
	Price int64  `json:"price"`
}

type productPayload struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Brand       string               `json:"brand,omitempty"`
	Category    string               `json:"category"`
	Price       int64                `json:"price"`
	Sizes       []sizeVariantPayload `json:"sizes,omitempty"`
	Description string               `json:"description,omitempty"`
	ImageURL    string               `json:"imageUrl,omitempty"`
	Stock       int                  `json:"stock"`
	Featured    bool                 `json:"featured"`
	CreatedAt   string               `json:"createdAt,omitempty"`
	UpdatedAt   string               `json:"updatedAt,omitempty"`
}

type bannerPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	ImageURL string `json:"imageUrl"`
	LinkURL  string `json:"linkUrl,omitempty"`
	Order    int    `json:"order"`
	Active   bool   `json:"active"`
}

type feesPayload struct {
	DeliveryCharge        int64 `json:"deliveryCharge"`
	FreeDeliveryThreshold int64 `json:"freeDeliveryThreshold"`
	WrappingFee           int64 `json:"wrappingFee"`
}

type settingsPayload struct {
	Fees         feesPayload `json:"fees"`
	Announcement string      `json:"announcement,omitempty"`
	ReturnPolicy string      `json:"returnPolicy,omitempty"`
	UpdatedAt    string      `json:"updatedAt,omitempty"`
}

type reviewPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Author    string `json:"author"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func buildProductPayload(product services.Product) productPayload {
	sizes := make([]sizeVariantPayload, 0, len(product.Sizes))
	for _, variant := range product.Sizes {
		sizes = append(sizes, sizeVariantPayload{Size: variant.Size, Price: variant.Price})
	}
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Brand:       product.Brand,
		Category:    string(product.Category),
		Price:       product.Price,
		Sizes:       sizes,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Stock:       product.Stock,
		Featured:    product.Featured,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

func buildBannerPayload(banner services.Banner) bannerPayload {
	return bannerPayload{
		ID:       banner.ID,
		Title:    banner.Title,
		Subtitle: banner.Subtitle,
		ImageURL: banner.ImageURL,
		LinkURL:  banner.LinkURL,
		Order:    banner.Order,
		Active:   banner.Active,
	}
}

func buildSettingsPayload(settings services.StoreSettings) settingsPayload {
	return settingsPayload{
		Fees: feesPayload{
			DeliveryCharge:        settings.Fees.DeliveryCharge,
			FreeDeliveryThreshold: settings.Fees.FreeDeliveryThreshold,
			WrappingFee:           settings.Fees.WrappingFee,
		},
		Announcement: settings.Announcement,
		ReturnPolicy: settings.ReturnPolicy,
		UpdatedAt:    formatTime(settings.UpdatedAt),
	}
}

func buildReviewPayload(review services.Review) reviewPayload {
	return reviewPayload{
		ID:        review.ID,
		ProductID: review.ProductID,
		Author:    review.Author,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: formatTime(review.CreatedAt),
	}
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCatalogNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogConflict):
		httpx.WriteError(ctx, w, httpx.NewError("product_conflict", "product already exists", http.StatusConflict))
	case errors.Is(err, services.ErrCatalogUploadsDisabled):
		httpx.WriteError(ctx, w, httpx.NewError("uploads_disabled", "image uploads are not configured", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrCatalogUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("catalog_error", "failed to process catalog request", http.StatusInternalServerError))
	}
}

func writeContentError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrContentInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrContentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found", http.StatusNotFound))
	case errors.Is(err, services.ErrContentUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("content_unavailable", "content store unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("content_error", "failed to process content request", http.StatusInternalServerError))
	}
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errEmptyBody):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
	case errors.Is(err, errBodyTooLarge):
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	}
}

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	if limit <= 0 {
		limit = defaultRequestBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseQueryInt(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseQueryBool(value string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && parsed
}

func clientKey(r *http.Request) string {
	if r == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
