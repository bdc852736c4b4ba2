package services

import (
	"context"
	"time"

	domain "github.com/ayvora/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product        = domain.Product
	LineItem       = domain.LineItem
	PromoCode      = domain.PromoCode
	PriceBreakdown = domain.PriceBreakdown
	StoreSettings  = domain.StoreSettings
	Order          = domain.Order
	OrderStatus    = domain.OrderStatus
	Banner         = domain.Banner
	Review         = domain.Review

	SystemHealthReport = domain.SystemHealthReport
)

// QuoteItem references a catalogue product and quantity from the storefront cart.
type QuoteItem struct {
	ProductID string
	Size      string
	Quantity  int
}

// QuoteCommand prices a cart without persisting anything.
type QuoteCommand struct {
	Items     []QuoteItem
	PromoCode string
	Gift      domain.GiftOptions
}

// AppliedPromo describes the promo applied to a quote or order.
type AppliedPromo struct {
	Code     string
	Title    string
	Discount int64
}

// QuoteResult carries the priced cart returned to the storefront.
type QuoteResult struct {
	Items     []LineItem
	Breakdown PriceBreakdown
	Promo     *AppliedPromo
}

// PlaceOrderCommand finalises a cart into a persisted order.
type PlaceOrderCommand struct {
	Items     []QuoteItem
	PromoCode string
	Gift      domain.GiftOptions
	Contact   domain.ContactDetails
	Shipping  domain.ShippingAddress
}

// CheckoutService prices carts and turns them into orders.
type CheckoutService interface {
	Quote(ctx context.Context, cmd QuoteCommand) (QuoteResult, error)
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error)
}

// ListOrdersCommand narrows the admin order listing.
type ListOrdersCommand struct {
	Status OrderStatus
	Limit  int
}

// OrderService exposes order lookup and lifecycle management.
type OrderService interface {
	Track(ctx context.Context, trackingID string) (Order, error)
	List(ctx context.Context, cmd ListOrdersCommand) ([]Order, error)
	UpdateStatus(ctx context.Context, trackingID string, status OrderStatus) (Order, error)
}

// CreatePromoCommand describes a single promo code to mint.
type CreatePromoCommand struct {
	Code          string
	Title         string
	Type          domain.DiscountType
	Value         int64
	Scope         domain.PromoScope
	ScopeTarget   string
	MinOrderValue int64
	MaxDiscount   int64
	Usage         domain.UsageLimit
	MaxUses       int64
	Active        bool
}

// CreatePromoBatchCommand mints a campaign of single-use codes sharing a prefix.
type CreatePromoBatchCommand struct {
	Prefix        string
	Count         int
	Title         string
	Type          domain.DiscountType
	Value         int64
	Scope         domain.PromoScope
	ScopeTarget   string
	MinOrderValue int64
	MaxDiscount   int64
}

// PromotionService owns promo code validation, redemption, and administration.
type PromotionService interface {
	// Validate checks the code against the ledger and the cart subtotal. It
	// returns the ledger entry when the code is applicable.
	Validate(ctx context.Context, code string, subtotal int64) (PromoCode, error)
	// RecordRedemption consumes one redemption slot after an order persists.
	RecordRedemption(ctx context.Context, code string) error
	Create(ctx context.Context, cmd CreatePromoCommand) (PromoCode, error)
	CreateBatch(ctx context.Context, cmd CreatePromoBatchCommand) ([]PromoCode, error)
	Delete(ctx context.Context, promoID string) error
	SetActive(ctx context.Context, promoID string, active bool) error
	List(ctx context.Context) ([]PromoCode, error)
}

// SaveProductCommand creates or updates a catalogue entry.
type SaveProductCommand struct {
	ID          string
	Name        string
	Brand       string
	Category    domain.ProductCategory
	Price       int64
	Sizes       []domain.SizeVariant
	Description string
	ImageURL    string
	Stock       int
	Featured    bool
}

// ListProductsCommand narrows the public catalogue listing.
type ListProductsCommand struct {
	Category domain.ProductCategory
	Search   string
	Limit    int
}

// ProductUploadURLCommand requests a signed upload URL for a product image.
type ProductUploadURLCommand struct {
	ProductID   string
	FileName    string
	ContentType string
}

// UploadURLResult carries a signed upload URL and the object it targets.
type UploadURLResult struct {
	URL       string
	Method    string
	ObjectKey string
	Headers   map[string]string
	ExpiresAt time.Time
}

// CatalogService owns the product catalogue.
type CatalogService interface {
	Get(ctx context.Context, productID string) (Product, error)
	List(ctx context.Context, cmd ListProductsCommand) ([]Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	NewArrivals(ctx context.Context, limit int) ([]Product, error)
	Create(ctx context.Context, cmd SaveProductCommand) (Product, error)
	Update(ctx context.Context, cmd SaveProductCommand) (Product, error)
	Delete(ctx context.Context, productID string) error
	IssueUploadURL(ctx context.Context, cmd ProductUploadURLCommand) (UploadURLResult, error)
}

// SaveBannerCommand creates or updates a homepage banner.
type SaveBannerCommand struct {
	ID       string
	Title    string
	Subtitle string
	ImageURL string
	LinkURL  string
	Order    int
	Active   bool
}

// CreateReviewCommand submits a customer review for a product.
type CreateReviewCommand struct {
	ProductID string
	Author    string
	Rating    int
	Comment   string
}

// ContentService owns banners, store settings, and product reviews.
type ContentService interface {
	ActiveBanners(ctx context.Context) ([]Banner, error)
	AllBanners(ctx context.Context) ([]Banner, error)
	SaveBanner(ctx context.Context, cmd SaveBannerCommand) (Banner, error)
	DeleteBanner(ctx context.Context, bannerID string) error

	Settings(ctx context.Context) (StoreSettings, error)
	SaveSettings(ctx context.Context, settings StoreSettings) (StoreSettings, error)

	CreateReview(ctx context.Context, cmd CreateReviewCommand) (Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	ListReviews(ctx context.Context, productID string, limit int) ([]Review, error)
}

// SystemService exposes operational health and build metadata.
type SystemService interface {
	HealthReport(ctx context.Context) (SystemHealthReport, error)
}

// OrderEventMessage is the payload published after an order persists.
type OrderEventMessage struct {
	TrackingID string    `json:"trackingId"`
	Status     string    `json:"status"`
	Total      int64     `json:"total"`
	PromoCode  string    `json:"promoCode,omitempty"`
	ItemCount  int       `json:"itemCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderEventPublisher emits order lifecycle events to downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}
