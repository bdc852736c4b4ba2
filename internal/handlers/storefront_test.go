package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/services"
)

type stubCatalogService struct {
	getFn       func(context.Context, string) (services.Product, error)
	listFn      func(context.Context, services.ListProductsCommand) ([]services.Product, error)
	featuredFn  func(context.Context, int) ([]services.Product, error)
	arrivalsFn  func(context.Context, int) ([]services.Product, error)
	createFn    func(context.Context, services.SaveProductCommand) (services.Product, error)
	updateFn    func(context.Context, services.SaveProductCommand) (services.Product, error)
	deleteFn    func(context.Context, string) error
	uploadURLFn func(context.Context, services.ProductUploadURLCommand) (services.UploadURLResult, error)
}

func (s *stubCatalogService) Get(ctx context.Context, productID string) (services.Product, error) {
	if s.getFn != nil {
		return s.getFn(ctx, productID)
	}
	return services.Product{}, services.ErrCatalogNotFound
}

func (s *stubCatalogService) List(ctx context.Context, cmd services.ListProductsCommand) ([]services.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx, cmd)
	}
	return nil, nil
}

func (s *stubCatalogService) Featured(ctx context.Context, limit int) ([]services.Product, error) {
	if s.featuredFn != nil {
		return s.featuredFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubCatalogService) NewArrivals(ctx context.Context, limit int) ([]services.Product, error) {
	if s.arrivalsFn != nil {
		return s.arrivalsFn(ctx, limit)
	}
	return nil, nil
}

func (s *stubCatalogService) Create(ctx context.Context, cmd services.SaveProductCommand) (services.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return services.Product{}, nil
}

func (s *stubCatalogService) Update(ctx context.Context, cmd services.SaveProductCommand) (services.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return services.Product{}, nil
}

func (s *stubCatalogService) Delete(ctx context.Context, productID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, productID)
	}
	return nil
}

func (s *stubCatalogService) IssueUploadURL(ctx context.Context, cmd services.ProductUploadURLCommand) (services.UploadURLResult, error) {
	if s.uploadURLFn != nil {
		return s.uploadURLFn(ctx, cmd)
	}
	return services.UploadURLResult{}, services.ErrCatalogUploadsDisabled
}

type stubContentService struct {
	activeBannersFn func(context.Context) ([]services.Banner, error)
	allBannersFn    func(context.Context) ([]services.Banner, error)
	saveBannerFn    func(context.Context, services.SaveBannerCommand) (services.Banner, error)
	deleteBannerFn  func(context.Context, string) error
	settingsFn      func(context.Context) (services.StoreSettings, error)
	saveSettingsFn  func(context.Context, services.StoreSettings) (services.StoreSettings, error)
	createReviewFn  func(context.Context, services.CreateReviewCommand) (services.Review, error)
	deleteReviewFn  func(context.Context, string) error
	listReviewsFn   func(context.Context, string, int) ([]services.Review, error)
}

func (s *stubContentService) ActiveBanners(ctx context.Context) ([]services.Banner, error) {
	if s.activeBannersFn != nil {
		return s.activeBannersFn(ctx)
	}
	return nil, nil
}

func (s *stubContentService) AllBanners(ctx context.Context) ([]services.Banner, error) {
	if s.allBannersFn != nil {
		return s.allBannersFn(ctx)
	}
	return nil, nil
}

func (s *stubContentService) SaveBanner(ctx context.Context, cmd services.SaveBannerCommand) (services.Banner, error) {
	if s.saveBannerFn != nil {
		return s.saveBannerFn(ctx, cmd)
	}
	return services.Banner{}, nil
}

func (s *stubContentService) DeleteBanner(ctx context.Context, bannerID string) error {
	if s.deleteBannerFn != nil {
		return s.deleteBannerFn(ctx, bannerID)
	}
	return nil
}

func (s *stubContentService) Settings(ctx context.Context) (services.StoreSettings, error) {
	if s.settingsFn != nil {
		return s.settingsFn(ctx)
	}
	return domain.DefaultStoreSettings(), nil
}

func (s *stubContentService) SaveSettings(ctx context.Context, settings services.StoreSettings) (services.StoreSettings, error) {
	if s.saveSettingsFn != nil {
		return s.saveSettingsFn(ctx, settings)
	}
	return settings, nil
}

func (s *stubContentService) CreateReview(ctx context.Context, cmd services.CreateReviewCommand) (services.Review, error) {
	if s.createReviewFn != nil {
		return s.createReviewFn(ctx, cmd)
	}
	return services.Review{}, nil
}

func (s *stubContentService) DeleteReview(ctx context.Context, reviewID string) error {
	if s.deleteReviewFn != nil {
		return s.deleteReviewFn(ctx, reviewID)
	}
	return nil
}

func (s *stubContentService) ListReviews(ctx context.Context, productID string, limit int) ([]services.Review, error) {
	if s.listReviewsFn != nil {
		return s.listReviewsFn(ctx, productID, limit)
	}
	return nil, nil
}

var (
	_ services.CatalogService = (*stubCatalogService)(nil)
	_ services.ContentService = (*stubContentService)(nil)
)

func newStorefrontRouter(catalog services.CatalogService, content services.ContentService) chi.Router {
	r := chi.NewRouter()
	NewStorefrontHandlers(catalog, content).Routes(r)
	return r
}

func TestStorefrontListProducts(t *testing.T) {
	catalog := &stubCatalogService{
		listFn: func(_ context.Context, cmd services.ListProductsCommand) ([]services.Product, error) {
			if cmd.Category != domain.CategoryMen {
				t.Fatalf("expected Men category filter, got %q", cmd.Category)
			}
			return []services.Product{{
				ID:       "prd_1",
				Name:     "Noir Intense",
				Category: domain.CategoryMen,
				Price:    3000,
				Sizes:    []domain.SizeVariant{{Size: "50ml", Price: 3000}},
			}}, nil
		},
	}
	router := newStorefrontRouter(catalog, &stubContentService{})

	req := httptest.NewRequest(http.MethodGet, "/products?category=Men", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Products []productPayload `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Products) != 1 || body.Products[0].ID != "prd_1" {
		t.Fatalf("unexpected products %+v", body.Products)
	}
	if body.Products[0].Sizes[0].Size != "50ml" {
		t.Fatalf("expected size variant in payload, got %+v", body.Products[0].Sizes)
	}
}

func TestStorefrontListProductsFeaturedDispatch(t *testing.T) {
	var featuredCalled bool
	catalog := &stubCatalogService{
		featuredFn: func(context.Context, int) ([]services.Product, error) {
			featuredCalled = true
			return nil, nil
		},
	}
	router := newStorefrontRouter(catalog, &stubContentService{})

	req := httptest.NewRequest(http.MethodGet, "/products?featured=true", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !featuredCalled {
		t.Fatalf("expected featured listing to be used")
	}
}

func TestStorefrontGetProductNotFound(t *testing.T) {
	router := newStorefrontRouter(&stubCatalogService{}, &stubContentService{})

	req := httptest.NewRequest(http.MethodGet, "/products/prd_missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body["error"] != "product_not_found" {
		t.Fatalf("expected product_not_found, got %v", body["error"])
	}
}

func TestStorefrontCreateReview(t *testing.T) {
	content := &stubContentService{
		createReviewFn: func(_ context.Context, cmd services.CreateReviewCommand) (services.Review, error) {
			if cmd.ProductID != "prd_1" {
				t.Fatalf("expected product id from path, got %q", cmd.ProductID)
			}
			return services.Review{
				ID:        "rev_1",
				ProductID: cmd.ProductID,
				Author:    cmd.Author,
				Rating:    cmd.Rating,
				Comment:   cmd.Comment,
				CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	router := newStorefrontRouter(&stubCatalogService{}, content)

	req := httptest.NewRequest(http.MethodPost, "/products/prd_1/reviews",
		strings.NewReader(`{"author":"Asha","rating":5,"comment":"Lovely scent"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	var body reviewPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.ID != "rev_1" || body.Rating != 5 {
		t.Fatalf("unexpected review payload %+v", body)
	}
}

func TestStorefrontCreateReviewRateLimited(t *testing.T) {
	content := &stubContentService{
		createReviewFn: func(_ context.Context, cmd services.CreateReviewCommand) (services.Review, error) {
			return services.Review{ID: "rev_1"}, nil
		},
	}
	router := newStorefrontRouter(&stubCatalogService{}, content)

	var lastCode int
	for i := 0; i < reviewRateLimit+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/products/prd_1/reviews",
			strings.NewReader(`{"rating":4,"comment":"Nice"}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		lastCode = rr.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected status 429 after limit, got %d", lastCode)
	}
}

func TestStorefrontCreateReviewDisabled(t *testing.T) {
	r := chi.NewRouter()
	NewStorefrontHandlers(&stubCatalogService{}, &stubContentService{},
		WithReviewsEnabled(false)).Routes(r)

	req := httptest.NewRequest(http.MethodPost, "/products/prd_1/reviews",
		strings.NewReader(`{"rating":4,"comment":"Nice"}`))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 when reviews are disabled, got %d", rr.Code)
	}
}

func TestStorefrontCreateReviewRejectsBadJSON(t *testing.T) {
	router := newStorefrontRouter(&stubCatalogService{}, &stubContentService{})

	req := httptest.NewRequest(http.MethodPost, "/products/prd_1/reviews", strings.NewReader("{"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestStorefrontListBanners(t *testing.T) {
	content := &stubContentService{
		activeBannersFn: func(context.Context) ([]services.Banner, error) {
			return []services.Banner{
				{ID: "ban_1", Title: "Summer drop", ImageURL: "https://img.test/1.webp", Order: 1, Active: true},
			}, nil
		},
	}
	router := newStorefrontRouter(&stubCatalogService{}, content)

	req := httptest.NewRequest(http.MethodGet, "/banners", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body struct {
		Banners []bannerPayload `json:"banners"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(body.Banners) != 1 || body.Banners[0].ID != "ban_1" {
		t.Fatalf("unexpected banners %+v", body.Banners)
	}
}

func TestStorefrontSettingsDefaults(t *testing.T) {
	router := newStorefrontRouter(&stubCatalogService{}, &stubContentService{})

	req := httptest.NewRequest(http.MethodGet, "/settings", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var body settingsPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Fees.DeliveryCharge != 200 || body.Fees.FreeDeliveryThreshold != 3000 || body.Fees.WrappingFee != 150 {
		t.Fatalf("expected default fees, got %+v", body.Fees)
	}
}
