package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/ayvora/api/internal/domain"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
)

const reviewsCollection = "reviews"

type reviewDocument struct {
	ProductID string    `firestore:"productId"`
	Author    string    `firestore:"author"`
	Rating    int       `firestore:"rating"`
	Comment   string    `firestore:"comment"`
	CreatedAt time.Time `firestore:"createdAt"`
}

// ReviewRepository implements repositories.ReviewRepository backed by Firestore.
type ReviewRepository struct {
	provider *pfirestore.Provider
	reviews  *pfirestore.BaseRepository[reviewDocument]
}

// NewReviewRepository constructs a Firestore-backed review repository.
func NewReviewRepository(provider *pfirestore.Provider) (*ReviewRepository, error) {
	if provider == nil {
		return nil, errors.New("review repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[reviewDocument](provider, reviewsCollection)
	return &ReviewRepository{provider: provider, reviews: base}, nil
}

// Insert creates a new review.
func (r *ReviewRepository) Insert(ctx context.Context, review domain.Review) error {
	if r == nil || r.provider == nil {
		return errors.New("review repository not initialised")
	}
	ref, err := r.reviews.DocumentRef(ctx, strings.TrimSpace(review.ID))
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, reviewDocument{
		ProductID: review.ProductID,
		Author:    review.Author,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	}); err != nil {
		return pfirestore.WrapError("reviews.insert", err)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, reviewID string) error {
	if r == nil || r.provider == nil {
		return errors.New("review repository not initialised")
	}
	ref, err := r.reviews.DocumentRef(ctx, strings.TrimSpace(reviewID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("reviews.delete", err)
	}
	return nil
}

// ListByProduct returns reviews for a product, newest first.
func (r *ReviewRepository) ListByProduct(ctx context.Context, productID string, limit int) ([]domain.Review, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("review repository not initialised")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, errors.New("product id is required")
	}

	docs, err := r.reviews.Query(ctx, func(q firestore.Query) firestore.Query {
		q = q.Where("productId", "==", productID).OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.Review{
			ID:        doc.ID,
			ProductID: doc.Data.ProductID,
			Author:    doc.Data.Author,
			Rating:    doc.Data.Rating,
			Comment:   doc.Data.Comment,
			CreatedAt: doc.Data.CreatedAt,
		})
	}
	return out, nil
}
