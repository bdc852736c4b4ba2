package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ayvora/api/internal/domain"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
	"github.com/ayvora/api/internal/repositories"
)

const promoCodesCollection = "promo_codes"

type promoDocument struct {
	Code          string    `firestore:"code"`
	Title         string    `firestore:"title"`
	Type          string    `firestore:"type"`
	Value         int64     `firestore:"value"`
	Scope         string    `firestore:"scope"`
	ScopeTarget   string    `firestore:"scopeTarget,omitempty"`
	MinOrderValue int64     `firestore:"minOrderValue"`
	MaxDiscount   int64     `firestore:"maxDiscount"`
	UsageLimit    string    `firestore:"usageLimit"`
	MaxUses       int64     `firestore:"maxUses"`
	UsedCount     int64     `firestore:"usedCount"`
	Active        bool      `firestore:"active"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

// PromoCodeRepository implements repositories.PromoCodeRepository backed by Firestore.
type PromoCodeRepository struct {
	provider *pfirestore.Provider
	promos   *pfirestore.BaseRepository[promoDocument]
	now      func() time.Time
}

// NewPromoCodeRepository constructs a Firestore-backed promo code repository.
func NewPromoCodeRepository(provider *pfirestore.Provider) (*PromoCodeRepository, error) {
	if provider == nil {
		return nil, errors.New("promo repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[promoDocument](provider, promoCodesCollection)
	return &PromoCodeRepository{
		provider: provider,
		promos:   base,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Insert creates a new ledger entry. The document ID must be unique.
func (r *PromoCodeRepository) Insert(ctx context.Context, promo domain.PromoCode) error {
	if r == nil || r.provider == nil {
		return errors.New("promo repository not initialised")
	}
	id := strings.TrimSpace(promo.ID)
	if id == "" {
		return repositories.NewRedemptionError(repositories.RedemptionErrorInvalidInput, "promo id is required", nil)
	}

	ref, err := r.promos.DocumentRef(ctx, id)
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, promoToDocument(promo)); err != nil {
		return pfirestore.WrapError("promo_codes.insert", err)
	}
	return nil
}

// InsertBatch creates a set of ledger entries, typically a single-use campaign.
func (r *PromoCodeRepository) InsertBatch(ctx context.Context, promos []domain.PromoCode) error {
	if r == nil || r.provider == nil {
		return errors.New("promo repository not initialised")
	}
	if len(promos) == 0 {
		return nil
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	writer := client.BulkWriter(ctx)
	for _, promo := range promos {
		id := strings.TrimSpace(promo.ID)
		if id == "" {
			writer.End()
			return repositories.NewRedemptionError(repositories.RedemptionErrorInvalidInput, "promo id is required", nil)
		}
		ref := client.Collection(promoCodesCollection).Doc(id)
		if _, err := writer.Create(ref, promoToDocument(promo)); err != nil {
			writer.End()
			return pfirestore.WrapError("promo_codes.insert_batch", err)
		}
	}
	writer.End()
	return nil
}

// Delete removes the ledger entry.
func (r *PromoCodeRepository) Delete(ctx context.Context, promoID string) error {
	if r == nil || r.provider == nil {
		return errors.New("promo repository not initialised")
	}
	ref, err := r.promos.DocumentRef(ctx, strings.TrimSpace(promoID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("promo_codes.delete", err)
	}
	return nil
}

// SetActive toggles the active flag.
func (r *PromoCodeRepository) SetActive(ctx context.Context, promoID string, active bool) error {
	if r == nil || r.provider == nil {
		return errors.New("promo repository not initialised")
	}
	_, err := r.promos.Update(ctx, strings.TrimSpace(promoID), []firestore.Update{
		{Path: "active", Value: active},
		{Path: "updatedAt", Value: r.now()},
	})
	return err
}

// FindByCode looks up a ledger entry by its normalised (uppercase) code.
func (r *PromoCodeRepository) FindByCode(ctx context.Context, code string) (domain.PromoCode, error) {
	if r == nil || r.provider == nil {
		return domain.PromoCode{}, errors.New("promo repository not initialised")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.PromoCode{}, repositories.NewRedemptionError(repositories.RedemptionErrorInvalidInput, "promo code is required", nil)
	}

	docs, err := r.promos.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("code", "==", code).Limit(1)
	})
	if err != nil {
		return domain.PromoCode{}, err
	}
	if len(docs) == 0 {
		return domain.PromoCode{}, pfirestore.WrapError("promo_codes.find", status.Error(codes.NotFound, fmt.Sprintf("promo code %s not found", code)))
	}
	return documentToPromo(docs[0].ID, docs[0].Data), nil
}

// List returns every ledger entry, newest first.
func (r *PromoCodeRepository) List(ctx context.Context) ([]domain.PromoCode, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("promo repository not initialised")
	}

	docs, err := r.promos.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("createdAt", firestore.Desc)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.PromoCode, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToPromo(doc.ID, doc.Data))
	}
	return out, nil
}

// Redeem increments usedCount inside a transaction, but only while the code
// still has redemptions left. The read and conditional write run atomically so
// two concurrent redemptions of the last slot cannot both succeed.
func (r *PromoCodeRepository) Redeem(ctx context.Context, code string) error {
	if r == nil || r.provider == nil {
		return errors.New("promo repository not initialised")
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return repositories.NewRedemptionError(repositories.RedemptionErrorInvalidInput, "promo code is required", nil)
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return err
	}

	err = r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		query := client.Collection(promoCodesCollection).Where("code", "==", code).Limit(1)
		snapshots, err := tx.Documents(query).GetAll()
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return repositories.NewRedemptionError(repositories.RedemptionErrorNotFound, fmt.Sprintf("promo code %s not found", code), nil)
		}

		var doc promoDocument
		if err := snapshots[0].DataTo(&doc); err != nil {
			return fmt.Errorf("firestore promo_codes decode %s: %w", code, err)
		}

		promo := documentToPromo(snapshots[0].Ref.ID, doc)
		if promo.Exhausted() {
			return repositories.NewRedemptionError(repositories.RedemptionErrorExhausted, fmt.Sprintf("promo code %s has no redemptions left", code), nil)
		}

		return tx.Update(snapshots[0].Ref, []firestore.Update{
			{Path: "usedCount", Value: firestore.Increment(1)},
			{Path: "updatedAt", Value: r.now()},
		})
	})
	if err != nil {
		var redemptionErr *repositories.RedemptionError
		if errors.As(err, &redemptionErr) {
			return redemptionErr
		}
		return pfirestore.WrapError("promo_codes.redeem", err)
	}
	return nil
}

func promoToDocument(promo domain.PromoCode) promoDocument {
	return promoDocument{
		Code:          promo.Code,
		Title:         promo.Title,
		Type:          string(promo.Type),
		Value:         promo.Value,
		Scope:         string(promo.Scope),
		ScopeTarget:   promo.ScopeTarget,
		MinOrderValue: promo.MinOrderValue,
		MaxDiscount:   promo.MaxDiscount,
		UsageLimit:    string(promo.Usage),
		MaxUses:       promo.MaxUses,
		UsedCount:     promo.UsedCount,
		Active:        promo.Active,
		CreatedAt:     promo.CreatedAt,
		UpdatedAt:     promo.UpdatedAt,
	}
}

func documentToPromo(id string, doc promoDocument) domain.PromoCode {
	return domain.PromoCode{
		ID:            id,
		Code:          doc.Code,
		Title:         doc.Title,
		Type:          domain.DiscountType(doc.Type),
		Value:         doc.Value,
		Scope:         domain.PromoScope(doc.Scope),
		ScopeTarget:   doc.ScopeTarget,
		MinOrderValue: doc.MinOrderValue,
		MaxDiscount:   doc.MaxDiscount,
		Usage:         domain.UsageLimit(doc.UsageLimit),
		MaxUses:       doc.MaxUses,
		UsedCount:     doc.UsedCount,
		Active:        doc.Active,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
}
