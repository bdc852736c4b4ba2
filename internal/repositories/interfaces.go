package repositories

import (
	"context"

	domain "github.com/ayvora/api/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Products() ProductRepository
	PromoCodes() PromoCodeRepository
	Orders() OrderRepository
	Banners() BannerRepository
	Settings() SettingsRepository
	Reviews() ReviewRepository
	Health() HealthRepository
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter narrows catalogue listings.
type ProductListFilter struct {
	Category     domain.ProductCategory
	FeaturedOnly bool
	Limit        int
}

// ProductRepository persists catalogue entries.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) error
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, productID string) error
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
}

// PromoCodeRepository owns the promo code ledger. Codes are stored uppercase;
// FindByCode expects an already-normalised code.
type PromoCodeRepository interface {
	Insert(ctx context.Context, promo domain.PromoCode) error
	InsertBatch(ctx context.Context, promos []domain.PromoCode) error
	Delete(ctx context.Context, promoID string) error
	SetActive(ctx context.Context, promoID string, active bool) error
	FindByCode(ctx context.Context, code string) (domain.PromoCode, error)
	List(ctx context.Context) ([]domain.PromoCode, error)
	// Redeem atomically increments usedCount while the code has redemptions
	// left. It returns a RedemptionError with code RedemptionErrorExhausted
	// when the ceiling was already reached.
	Redeem(ctx context.Context, code string) error
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	Status domain.OrderStatus
	Limit  int
}

// OrderRepository persists checkout orders keyed by tracking ID.
type OrderRepository interface {
	// Insert writes the order with a create-only precondition so tracking ID
	// collisions surface as conflicts rather than silent overwrites.
	Insert(ctx context.Context, order domain.Order) error
	FindByTrackingID(ctx context.Context, trackingID string) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, trackingID string, status domain.OrderStatus) (domain.Order, error)
}

// BannerRepository persists homepage banners.
type BannerRepository interface {
	Insert(ctx context.Context, banner domain.Banner) error
	Update(ctx context.Context, banner domain.Banner) error
	Delete(ctx context.Context, bannerID string) error
	ListActive(ctx context.Context) ([]domain.Banner, error)
	ListAll(ctx context.Context) ([]domain.Banner, error)
}

// SettingsRepository owns the singleton store configuration document.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.StoreSettings, error)
	Save(ctx context.Context, settings domain.StoreSettings) error
}

// ReviewRepository persists product reviews.
type ReviewRepository interface {
	Insert(ctx context.Context, review domain.Review) error
	Delete(ctx context.Context, reviewID string) error
	ListByProduct(ctx context.Context, productID string, limit int) ([]domain.Review, error)
}

// HealthRepository aggregates dependency health probes for readiness endpoints.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
