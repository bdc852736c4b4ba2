package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/ayvora/api/internal/domain"
	platformstorage "github.com/ayvora/api/internal/platform/storage"
	"github.com/ayvora/api/internal/repositories"
)

const (
	productIDPrefix     = "prd_"
	newArrivalWindow    = 30 * 24 * time.Hour
	uploadURLTTL        = 15 * time.Minute
	defaultCatalogLimit = 100
)

var allowedImageContentTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	// ErrCatalogInvalidInput indicates validation failures for catalogue operations.
	ErrCatalogInvalidInput = errors.New("catalog: invalid input")
	// ErrCatalogNotFound indicates the product does not exist.
	ErrCatalogNotFound = errors.New("catalog: product not found")
	// ErrCatalogConflict indicates a duplicate product id.
	ErrCatalogConflict = errors.New("catalog: conflict")
	// ErrCatalogUnavailable indicates the catalogue store could not be reached.
	ErrCatalogUnavailable = errors.New("catalog: store unavailable")
	// ErrCatalogUploadsDisabled indicates no upload signer is configured.
	ErrCatalogUploadsDisabled = errors.New("catalog: uploads disabled")
)

// CatalogServiceDeps bundles collaborators required to construct a CatalogService.
type CatalogServiceDeps struct {
	Products     repositories.ProductRepository
	Uploads      *platformstorage.Client
	ImagesBucket string
	Clock        func() time.Time
	IDGenerator  func() string
}

type catalogService struct {
	products     repositories.ProductRepository
	uploads      *platformstorage.Client
	imagesBucket string
	clock        func() time.Time
	newID        func() string
}

// NewCatalogService wires dependencies into a concrete CatalogService implementation.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return productIDPrefix + ulid.Make().String()
		}
	}
	return &catalogService{
		products:     deps.Products,
		uploads:      deps.Uploads,
		imagesBucket: strings.TrimSpace(deps.ImagesBucket),
		clock:        func() time.Time { return clock().UTC() },
		newID:        idGen,
	}, nil
}

func (s *catalogService) Get(ctx context.Context, productID string) (Product, error) {
	if strings.TrimSpace(productID) == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return Product{}, s.mapCatalogError(err)
	}
	return product, nil
}

func (s *catalogService) List(ctx context.Context, cmd ListProductsCommand) ([]Product, error) {
	if cmd.Category != "" && !validCategory(cmd.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", ErrCatalogInvalidInput, cmd.Category)
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}

	search := strings.TrimSpace(cmd.Search)
	filter := repositories.ProductListFilter{Category: cmd.Category}
	// Substring search filters in memory, so the store query stays unbounded
	// and the limit applies after matching.
	if search == "" {
		filter.Limit = limit
	}

	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, s.mapCatalogError(err)
	}

	if search == "" {
		return products, nil
	}

	needle := strings.ToLower(search)
	matched := make([]Product, 0, len(products))
	for _, product := range products {
		if matchesSearch(product, needle) {
			matched = append(matched, product)
			if len(matched) >= limit {
				break
			}
		}
	}
	return matched, nil
}

func (s *catalogService) Featured(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	products, err := s.products.List(ctx, repositories.ProductListFilter{
		FeaturedOnly: true,
		Limit:        limit,
	})
	if err != nil {
		return nil, s.mapCatalogError(err)
	}
	return products, nil
}

func (s *catalogService) NewArrivals(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	products, err := s.products.List(ctx, repositories.ProductListFilter{})
	if err != nil {
		return nil, s.mapCatalogError(err)
	}

	cutoff := s.clock().Add(-newArrivalWindow)
	arrivals := make([]Product, 0, limit)
	for _, product := range products {
		if product.CreatedAt.After(cutoff) {
			arrivals = append(arrivals, product)
			if len(arrivals) >= limit {
				break
			}
		}
	}
	return arrivals, nil
}

func (s *catalogService) Create(ctx context.Context, cmd SaveProductCommand) (Product, error) {
	product, err := s.buildProduct(cmd, true)
	if err != nil {
		return Product{}, err
	}
	if err := s.products.Insert(ctx, product); err != nil {
		return Product{}, s.mapCatalogError(err)
	}
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, cmd SaveProductCommand) (Product, error) {
	if strings.TrimSpace(cmd.ID) == "" {
		return Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	existing, err := s.products.FindByID(ctx, cmd.ID)
	if err != nil {
		return Product{}, s.mapCatalogError(err)
	}

	product, err := s.buildProduct(cmd, false)
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = existing.CreatedAt

	if err := s.products.Update(ctx, product); err != nil {
		return Product{}, s.mapCatalogError(err)
	}
	return product, nil
}

func (s *catalogService) Delete(ctx context.Context, productID string) error {
	if strings.TrimSpace(productID) == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return s.mapCatalogError(err)
	}
	return nil
}

func (s *catalogService) IssueUploadURL(ctx context.Context, cmd ProductUploadURLCommand) (UploadURLResult, error) {
	if s.uploads == nil || s.imagesBucket == "" {
		return UploadURLResult{}, ErrCatalogUploadsDisabled
	}
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return UploadURLResult{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}

	objectKey, err := platformstorage.BuildObjectPath(platformstorage.PurposeProductImage, platformstorage.PathParams{
		ProductID: productID,
		FileName:  cmd.FileName,
	})
	if err != nil {
		return UploadURLResult{}, fmt.Errorf("%w: %v", ErrCatalogInvalidInput, err)
	}

	signed, err := s.uploads.SignedURL(ctx, s.imagesBucket, objectKey, platformstorage.SignedURLOptions{
		Upload: &platformstorage.UploadOptions{
			Method:              "PUT",
			ContentType:         cmd.ContentType,
			AllowedContentTypes: allowedImageContentTypes,
			ExpiresIn:           uploadURLTTL,
		},
	})
	if err != nil {
		return UploadURLResult{}, fmt.Errorf("%w: %v", ErrCatalogInvalidInput, err)
	}

	return UploadURLResult{
		URL:       signed.URL,
		Method:    signed.Method,
		ObjectKey: objectKey,
		Headers:   signed.Headers,
		ExpiresAt: signed.ExpiresAt,
	}, nil
}

func (s *catalogService) buildProduct(cmd SaveProductCommand, fresh bool) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrCatalogInvalidInput)
	}
	if !validCategory(cmd.Category) {
		return domain.Product{}, fmt.Errorf("%w: unknown category %q", ErrCatalogInvalidInput, cmd.Category)
	}
	if cmd.Price < 0 {
		return domain.Product{}, fmt.Errorf("%w: price must not be negative", ErrCatalogInvalidInput)
	}
	if cmd.Stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrCatalogInvalidInput)
	}
	for _, variant := range cmd.Sizes {
		if strings.TrimSpace(variant.Size) == "" || variant.Price < 0 {
			return domain.Product{}, fmt.Errorf("%w: size variants need a label and non-negative price", ErrCatalogInvalidInput)
		}
	}

	id := strings.TrimSpace(cmd.ID)
	if fresh && id == "" {
		id = s.newID()
	}

	now := s.clock()
	return domain.Product{
		ID:          id,
		Name:        name,
		Brand:       strings.TrimSpace(cmd.Brand),
		Category:    cmd.Category,
		Price:       cmd.Price,
		Sizes:       cmd.Sizes,
		Description: strings.TrimSpace(cmd.Description),
		ImageURL:    strings.TrimSpace(cmd.ImageURL),
		Stock:       cmd.Stock,
		Featured:    cmd.Featured,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func validCategory(category domain.ProductCategory) bool {
	switch category {
	case domain.CategoryMen, domain.CategoryWomen, domain.CategoryUnisex:
		return true
	}
	return false
}

func matchesSearch(product domain.Product, needle string) bool {
	return strings.Contains(strings.ToLower(product.Name), needle) ||
		strings.Contains(strings.ToLower(product.Brand), needle) ||
		strings.Contains(strings.ToLower(product.Description), needle)
}

func (s *catalogService) mapCatalogError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrCatalogNotFound
		case repoErr.IsConflict():
			return ErrCatalogConflict
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
	}
	return err
}
