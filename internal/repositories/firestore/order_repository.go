package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/ayvora/api/internal/domain"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
	"github.com/ayvora/api/internal/repositories"
)

const ordersCollection = "orders"

type orderLineItemDocument struct {
	ProductID string `firestore:"productId"`
	Name      string `firestore:"name"`
	Brand     string `firestore:"brand"`
	Category  string `firestore:"category"`
	Size      string `firestore:"size"`
	UnitPrice int64  `firestore:"unitPrice"`
	Quantity  int    `firestore:"quantity"`
	ImageURL  string `firestore:"imageUrl"`
}

type orderContactDocument struct {
	Name  string `firestore:"name"`
	Email string `firestore:"email"`
	Phone string `firestore:"phone"`
}

type orderAddressDocument struct {
	Line1      string `firestore:"line1"`
	Line2      string `firestore:"line2"`
	City       string `firestore:"city"`
	State      string `firestore:"state"`
	PostalCode string `firestore:"postalCode"`
	Country    string `firestore:"country"`
}

type orderGiftDocument struct {
	IsGift   bool   `firestore:"isGift"`
	WrapGift bool   `firestore:"wrapGift"`
	Note     string `firestore:"note"`
}

type orderBreakdownDocument struct {
	Subtotal           int64 `firestore:"subtotal"`
	ApplicableSubtotal int64 `firestore:"applicableSubtotal"`
	Discount           int64 `firestore:"discount"`
	Shipping           int64 `firestore:"shipping"`
	GiftWrapFee        int64 `firestore:"giftWrapFee"`
	Total              int64 `firestore:"total"`
}

type orderDocument struct {
	Items     []orderLineItemDocument `firestore:"items"`
	Contact   orderContactDocument    `firestore:"contact"`
	Shipping  orderAddressDocument    `firestore:"shipping"`
	Gift      orderGiftDocument       `firestore:"gift"`
	PromoCode string                  `firestore:"promoCode"`
	Breakdown orderBreakdownDocument  `firestore:"breakdown"`
	Status    string                  `firestore:"status"`
	CreatedAt time.Time               `firestore:"createdAt"`
	UpdatedAt time.Time               `firestore:"updatedAt"`
}

// OrderRepository implements repositories.OrderRepository backed by Firestore.
// The tracking ID doubles as the document ID.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
	now      func() time.Time
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection)
	return &OrderRepository{
		provider: provider,
		orders:   base,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Insert writes the order with a create-only precondition. A tracking ID that
// already exists surfaces as a conflict so the caller can regenerate and retry.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	if r == nil || r.provider == nil {
		return errors.New("order repository not initialised")
	}
	trackingID := strings.TrimSpace(order.TrackingID)
	if trackingID == "" {
		return errors.New("order tracking id is required")
	}

	ref, err := r.orders.DocumentRef(ctx, trackingID)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, orderToDocument(order)); err != nil {
		return pfirestore.WrapError("orders.insert", err)
	}
	return nil
}

// FindByTrackingID fetches a single order.
func (r *OrderRepository) FindByTrackingID(ctx context.Context, trackingID string) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	doc, err := r.orders.Get(ctx, strings.TrimSpace(trackingID))
	if err != nil {
		return domain.Order{}, err
	}
	return documentToOrder(doc.ID, doc.Data), nil
}

// List returns orders newest first, optionally narrowed by status.
func (r *OrderRepository) List(ctx context.Context, filter repositories.OrderListFilter) ([]domain.Order, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("order repository not initialised")
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != "" {
			q = q.Where("status", "==", string(filter.Status))
		}
		q = q.OrderBy("createdAt", firestore.Desc)
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToOrder(doc.ID, doc.Data))
	}
	return out, nil
}

// UpdateStatus persists a lifecycle transition and returns the updated order.
func (r *OrderRepository) UpdateStatus(ctx context.Context, trackingID string, status domain.OrderStatus) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}
	trackingID = strings.TrimSpace(trackingID)

	if _, err := r.orders.Update(ctx, trackingID, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: r.now()},
	}); err != nil {
		return domain.Order{}, err
	}
	return r.FindByTrackingID(ctx, trackingID)
}

func orderToDocument(order domain.Order) orderDocument {
	items := make([]orderLineItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderLineItemDocument{
			ProductID: item.ProductID,
			Name:      item.Name,
			Brand:     item.Brand,
			Category:  string(item.Category),
			Size:      item.Size,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return orderDocument{
		Items: items,
		Contact: orderContactDocument{
			Name:  order.Contact.Name,
			Email: order.Contact.Email,
			Phone: order.Contact.Phone,
		},
		Shipping: orderAddressDocument{
			Line1:      order.Shipping.Line1,
			Line2:      order.Shipping.Line2,
			City:       order.Shipping.City,
			State:      order.Shipping.State,
			PostalCode: order.Shipping.PostalCode,
			Country:    order.Shipping.Country,
		},
		Gift: orderGiftDocument{
			IsGift:   order.Gift.IsGift,
			WrapGift: order.Gift.WrapGift,
			Note:     order.Gift.Note,
		},
		PromoCode: order.PromoCode,
		Breakdown: orderBreakdownDocument{
			Subtotal:           order.Breakdown.Subtotal,
			ApplicableSubtotal: order.Breakdown.ApplicableSubtotal,
			Discount:           order.Breakdown.Discount,
			Shipping:           order.Breakdown.Shipping,
			GiftWrapFee:        order.Breakdown.GiftWrapFee,
			Total:              order.Breakdown.Total,
		},
		Status:    string(order.Status),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
}

func documentToOrder(trackingID string, doc orderDocument) domain.Order {
	items := make([]domain.LineItem, 0, len(doc.Items))
	for _, item := range doc.Items {
		items = append(items, domain.LineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Brand:     item.Brand,
			Category:  domain.ProductCategory(item.Category),
			Size:      item.Size,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			ImageURL:  item.ImageURL,
		})
	}
	return domain.Order{
		TrackingID: trackingID,
		Items:      items,
		Contact: domain.ContactDetails{
			Name:  doc.Contact.Name,
			Email: doc.Contact.Email,
			Phone: doc.Contact.Phone,
		},
		Shipping: domain.ShippingAddress{
			Line1:      doc.Shipping.Line1,
			Line2:      doc.Shipping.Line2,
			City:       doc.Shipping.City,
			State:      doc.Shipping.State,
			PostalCode: doc.Shipping.PostalCode,
			Country:    doc.Shipping.Country,
		},
		Gift: domain.GiftOptions{
			IsGift:   doc.Gift.IsGift,
			WrapGift: doc.Gift.WrapGift,
			Note:     doc.Gift.Note,
		},
		PromoCode: doc.PromoCode,
		Breakdown: domain.PriceBreakdown{
			Subtotal:           doc.Breakdown.Subtotal,
			ApplicableSubtotal: doc.Breakdown.ApplicableSubtotal,
			Discount:           doc.Breakdown.Discount,
			Shipping:           doc.Breakdown.Shipping,
			GiftWrapFee:        doc.Breakdown.GiftWrapFee,
			Total:              doc.Breakdown.Total,
		},
		Status:    domain.OrderStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
