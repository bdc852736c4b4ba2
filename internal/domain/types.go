package domain

import (
	"time"
)

// ProductCategory enumerates the storefront catalogue sections.
type ProductCategory string

const (
	// CategoryMen groups fragrances marketed for men.
	CategoryMen ProductCategory = "Men"
	// CategoryWomen groups fragrances marketed for women.
	CategoryWomen ProductCategory = "Women"
	// CategoryUnisex groups fragrances marketed for everyone.
	CategoryUnisex ProductCategory = "Unisex"
)

// SizeVariant represents a purchasable bottle size with its own price.
type SizeVariant struct {
	Size  string
	Price int64
}

// Product is the public catalogue entry for a fragrance.
type Product struct {
	ID          string
	Name        string
	Brand       string
	Category    ProductCategory
	Price       int64
	Sizes       []SizeVariant
	Description string
	ImageURL    string
	Stock       int
	Featured    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LineItem is a single priced entry in a cart or order, snapshotted at
// checkout time so later catalogue edits never change an order.
type LineItem struct {
	ProductID string
	Name      string
	Brand     string
	Category  ProductCategory
	Size      string
	UnitPrice int64
	Quantity  int
	ImageURL  string
}

// DiscountType distinguishes percentage promos from fixed-amount promos.
type DiscountType string

const (
	// DiscountPercentage deducts a percentage of the applicable subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed deducts a fixed amount, clamped to the applicable subtotal.
	DiscountFixed DiscountType = "fixed"
)

// PromoScope restricts which part of the cart a promo discounts. Category and
// product scopes name their subject in PromoCode.ScopeTarget.
type PromoScope string

const (
	// ScopeAll applies the promo to every item in the cart.
	ScopeAll PromoScope = "all"
	// ScopeCategory applies the promo to items whose category equals ScopeTarget.
	ScopeCategory PromoScope = "category"
	// ScopeProduct applies the promo to the single product named by ScopeTarget.
	ScopeProduct PromoScope = "product"
)

// UsageLimit distinguishes one-shot promo codes from capped multi-use codes.
type UsageLimit string

const (
	// UsageSingle permits exactly one redemption.
	UsageSingle UsageLimit = "single"
	// UsageMulti permits redemptions until MaxUses is reached.
	UsageMulti UsageLimit = "multi"
)

// PromoCode is a ledger entry controlling a discount campaign. Code values
// are stored uppercase; lookups normalise before matching.
type PromoCode struct {
	ID            string
	Code          string
	Title         string
	Type          DiscountType
	Value         int64
	Scope         PromoScope
	ScopeTarget   string
	MinOrderValue int64
	MaxDiscount   int64
	Usage         UsageLimit
	MaxUses       int64
	UsedCount     int64
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Exhausted reports whether the code has no redemptions left.
func (p PromoCode) Exhausted() bool {
	if p.Usage == UsageSingle {
		return p.UsedCount >= 1
	}
	return p.MaxUses > 0 && p.UsedCount >= p.MaxUses
}

// FeeConfig carries the store-wide checkout fees. Amounts are whole rupees.
type FeeConfig struct {
	DeliveryCharge        int64
	FreeDeliveryThreshold int64
	WrappingFee           int64
}

// StoreSettings is the singleton store configuration document.
type StoreSettings struct {
	Fees         FeeConfig
	Announcement string
	ReturnPolicy string
	UpdatedAt    time.Time
}

// DefaultStoreSettings returns the fee schedule used until an admin saves one.
func DefaultStoreSettings() StoreSettings {
	return StoreSettings{
		Fees: FeeConfig{
			DeliveryCharge:        200,
			FreeDeliveryThreshold: 3000,
			WrappingFee:           150,
		},
	}
}

// OrderStatus enumerates valid lifecycle states for orders.
type OrderStatus string

const (
	// OrderStatusPending indicates a freshly placed order awaiting handling.
	OrderStatusPending OrderStatus = "Pending"
	// OrderStatusProcessing indicates the order is being prepared.
	OrderStatusProcessing OrderStatus = "Processing"
	// OrderStatusShipped indicates the order has left the warehouse.
	OrderStatusShipped OrderStatus = "Shipped"
	// OrderStatusDelivered indicates the order reached the customer.
	OrderStatusDelivered OrderStatus = "Delivered"
	// OrderStatusCancelled indicates the order was cancelled.
	OrderStatusCancelled OrderStatus = "Cancelled"
)

// ValidOrderStatus reports whether s is one of the known lifecycle states.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// ContactDetails stores the customer contact snapshot for notifications.
type ContactDetails struct {
	Name  string
	Email string
	Phone string
}

// ShippingAddress is the delivery address snapshot on an order.
type ShippingAddress struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// GiftOptions carries the gifting flags and optional note for an order.
type GiftOptions struct {
	IsGift   bool
	WrapGift bool
	Note     string
}

// Order is the immutable record written at checkout. The tracking ID doubles
// as the document ID so customers can look orders up without an account.
type Order struct {
	TrackingID string
	Items      []LineItem
	Contact    ContactDetails
	Shipping   ShippingAddress
	Gift       GiftOptions
	PromoCode  string
	Breakdown  PriceBreakdown
	Status     OrderStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Banner is a homepage hero slide managed by admins.
type Banner struct {
	ID       string
	Title    string
	Subtitle string
	ImageURL string
	LinkURL  string
	Order    int
	Active   bool
}

// Review captures customer feedback attached to a product.
type Review struct {
	ID        string
	ProductID string
	Author    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

const (
	// HealthStatusOK indicates all dependencies are healthy.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one dependency is degraded but service remains running.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the service or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck describes the outcome of an individual dependency probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates dependency status for health endpoints.
type SystemHealthReport struct {
	Status      string
	Checks      map[string]SystemHealthCheck
	Version     string
	CommitSHA   string
	Environment string
	Uptime      time.Duration
	GeneratedAt time.Time
}
