package firestore

import (
	"context"
	"errors"

	pfirestore "github.com/ayvora/api/internal/platform/firestore"
	"github.com/ayvora/api/internal/repositories"
)

// Registry bundles the Firestore-backed repositories behind the
// repositories.Registry interface.
type Registry struct {
	provider *pfirestore.Provider

	products *ProductRepository
	promos   *PromoCodeRepository
	orders   *OrderRepository
	banners  *BannerRepository
	settings *SettingsRepository
	reviews  *ReviewRepository
	health   repositories.HealthRepository
}

// NewRegistry wires every repository against the shared provider. The health
// repository is injected because its dependency probes are composed in main.
func NewRegistry(provider *pfirestore.Provider, health repositories.HealthRepository) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("registry requires firestore provider")
	}

	products, err := NewProductRepository(provider)
	if err != nil {
		return nil, err
	}
	promos, err := NewPromoCodeRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}
	banners, err := NewBannerRepository(provider)
	if err != nil {
		return nil, err
	}
	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}
	reviews, err := NewReviewRepository(provider)
	if err != nil {
		return nil, err
	}

	return &Registry{
		provider: provider,
		products: products,
		promos:   promos,
		orders:   orders,
		banners:  banners,
		settings: settings,
		reviews:  reviews,
		health:   health,
	}, nil
}

// Close releases the underlying Firestore client.
func (r *Registry) Close(ctx context.Context) error {
	if r == nil || r.provider == nil {
		return nil
	}
	return r.provider.Close(ctx)
}

// Products returns the catalogue repository.
func (r *Registry) Products() repositories.ProductRepository { return r.products }

// PromoCodes returns the promo code ledger repository.
func (r *Registry) PromoCodes() repositories.PromoCodeRepository { return r.promos }

// Orders returns the order repository.
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }

// Banners returns the banner repository.
func (r *Registry) Banners() repositories.BannerRepository { return r.banners }

// Settings returns the store settings repository.
func (r *Registry) Settings() repositories.SettingsRepository { return r.settings }

// Reviews returns the review repository.
func (r *Registry) Reviews() repositories.ReviewRepository { return r.reviews }

// Health returns the dependency health repository.
func (r *Registry) Health() repositories.HealthRepository { return r.health }
