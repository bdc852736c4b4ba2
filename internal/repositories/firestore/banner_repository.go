package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/ayvora/api/internal/domain"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
)

const bannersCollection = "banners"

type bannerDocument struct {
	Title    string `firestore:"title"`
	Subtitle string `firestore:"subtitle"`
	ImageURL string `firestore:"imageUrl"`
	LinkURL  string `firestore:"linkUrl"`
	Order    int    `firestore:"order"`
	Active   bool   `firestore:"active"`
}

// BannerRepository implements repositories.BannerRepository backed by Firestore.
type BannerRepository struct {
	provider *pfirestore.Provider
	banners  *pfirestore.BaseRepository[bannerDocument]
}

// NewBannerRepository constructs a Firestore-backed banner repository.
func NewBannerRepository(provider *pfirestore.Provider) (*BannerRepository, error) {
	if provider == nil {
		return nil, errors.New("banner repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[bannerDocument](provider, bannersCollection)
	return &BannerRepository{provider: provider, banners: base}, nil
}

// Insert creates a new banner.
func (r *BannerRepository) Insert(ctx context.Context, banner domain.Banner) error {
	if r == nil || r.provider == nil {
		return errors.New("banner repository not initialised")
	}
	ref, err := r.banners.DocumentRef(ctx, strings.TrimSpace(banner.ID))
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, bannerToDocument(banner)); err != nil {
		return pfirestore.WrapError("banners.insert", err)
	}
	return nil
}

// Update overwrites an existing banner.
func (r *BannerRepository) Update(ctx context.Context, banner domain.Banner) error {
	if r == nil || r.provider == nil {
		return errors.New("banner repository not initialised")
	}
	_, err := r.banners.Set(ctx, strings.TrimSpace(banner.ID), bannerToDocument(banner))
	return err
}

// Delete removes the banner.
func (r *BannerRepository) Delete(ctx context.Context, bannerID string) error {
	if r == nil || r.provider == nil {
		return errors.New("banner repository not initialised")
	}
	ref, err := r.banners.DocumentRef(ctx, strings.TrimSpace(bannerID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("banners.delete", err)
	}
	return nil
}

// ListActive returns active banners in display order. The active filter runs
// in memory so the collection needs no composite index.
func (r *BannerRepository) ListActive(ctx context.Context) ([]domain.Banner, error) {
	banners, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Banner, 0, len(banners))
	for _, banner := range banners {
		if banner.Active {
			active = append(active, banner)
		}
	}
	return active, nil
}

// ListAll returns every banner in display order.
func (r *BannerRepository) ListAll(ctx context.Context) ([]domain.Banner, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("banner repository not initialised")
	}

	docs, err := r.banners.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("order", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Banner, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToBanner(doc.ID, doc.Data))
	}
	return out, nil
}

func bannerToDocument(banner domain.Banner) bannerDocument {
	return bannerDocument{
		Title:    banner.Title,
		Subtitle: banner.Subtitle,
		ImageURL: banner.ImageURL,
		LinkURL:  banner.LinkURL,
		Order:    banner.Order,
		Active:   banner.Active,
	}
}

func documentToBanner(id string, doc bannerDocument) domain.Banner {
	return domain.Banner{
		ID:       id,
		Title:    doc.Title,
		Subtitle: doc.Subtitle,
		ImageURL: doc.ImageURL,
		LinkURL:  doc.LinkURL,
		Order:    doc.Order,
		Active:   doc.Active,
	}
}
