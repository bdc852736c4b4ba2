package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/platform/httpx"
	"github.com/ayvora/api/internal/services"
)

type saveProductRequest struct {
	Name        string               `json:"name"`
	Brand       string               `json:"brand"`
	Category    string               `json:"category"`
	Price       int64                `json:"price"`
	Sizes       []sizeVariantPayload `json:"sizes"`
	Description string               `json:"description"`
	ImageURL    string               `json:"imageUrl"`
	Stock       int                  `json:"stock"`
	Featured    bool                 `json:"featured"`
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	query := r.URL.Query()
	products, err := h.catalog.List(ctx, services.ListProductsCommand{
		Category: domain.ProductCategory(strings.TrimSpace(query.Get("category"))),
		Search:   query.Get("q"),
		Limit:    parseQueryInt(query.Get("limit")),
	})
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

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "productID"))
}

func (h *AdminHandlers) saveProduct(w http.ResponseWriter, r *http.Request, productID string) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req saveProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	sizes := make([]domain.SizeVariant, 0, len(req.Sizes))
	for _, variant := range req.Sizes {
		sizes = append(sizes, domain.SizeVariant{Size: variant.Size, Price: variant.Price})
	}

	cmd := services.SaveProductCommand{
		ID:          productID,
		Name:        req.Name,
		Brand:       req.Brand,
		Category:    domain.ProductCategory(strings.TrimSpace(req.Category)),
		Price:       req.Price,
		Sizes:       sizes,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		Featured:    req.Featured,
	}

	var product services.Product
	if productID == "" {
		product, err = h.catalog.Create(ctx, cmd)
	} else {
		product, err = h.catalog.Update(ctx, cmd)
	}
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if productID == "" {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, buildProductPayload(product))
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	if err := h.catalog.Delete(ctx, chi.URLParam(r, "productID")); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type uploadURLRequest struct {
	ProductID   string `json:"productId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type uploadURLResponse struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	ObjectKey string            `json:"objectKey"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt string            `json:"expiresAt,omitempty"`
}

func (h *AdminHandlers) issueUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxAdminRequestBody)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req uploadURLRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	result, err := h.catalog.IssueUploadURL(ctx, services.ProductUploadURLCommand{
		ProductID:   req.ProductID,
		FileName:    req.FileName,
		ContentType: req.ContentType,
	})
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, uploadURLResponse{
		URL:       result.URL,
		Method:    result.Method,
		ObjectKey: result.ObjectKey,
		Headers:   result.Headers,
		ExpiresAt: formatTime(result.ExpiresAt),
	})
}
