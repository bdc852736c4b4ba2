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

const productsCollection = "products"

type sizeVariantDocument struct {
	Size  string `firestore:"size"`
	Price int64  `firestore:"price"`
}

type productDocument struct {
	Name        string                `firestore:"name"`
	Brand       string                `firestore:"brand"`
	Category    string                `firestore:"category"`
	Price       int64                 `firestore:"price"`
	Sizes       []sizeVariantDocument `firestore:"sizes"`
	Description string                `firestore:"description"`
	ImageURL    string                `firestore:"imageUrl"`
	Stock       int                   `firestore:"stock"`
	Featured    bool                  `firestore:"featured"`
	CreatedAt   time.Time             `firestore:"createdAt"`
	UpdatedAt   time.Time             `firestore:"updatedAt"`
}

// ProductRepository implements repositories.ProductRepository backed by Firestore.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection)
	return &ProductRepository{provider: provider, products: base}, nil
}

// Insert creates a new catalogue entry.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.products.DocumentRef(ctx, strings.TrimSpace(product.ID))
	if err != nil {
		return err
	}
	if _, err := ref.Create(ctx, productToDocument(product)); err != nil {
		return pfirestore.WrapError("products.insert", err)
	}
	return nil
}

// Update overwrites an existing catalogue entry.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	_, err := r.products.Set(ctx, strings.TrimSpace(product.ID), productToDocument(product))
	return err
}

// Delete removes the catalogue entry.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	if r == nil || r.provider == nil {
		return errors.New("product repository not initialised")
	}
	ref, err := r.products.DocumentRef(ctx, strings.TrimSpace(productID))
	if err != nil {
		return err
	}
	if _, err := ref.Delete(ctx); err != nil {
		return pfirestore.WrapError("products.delete", err)
	}
	return nil
}

// FindByID fetches a single catalogue entry.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}
	doc, err := r.products.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return documentToProduct(doc.ID, doc.Data), nil
}

// List returns catalogue entries, newest first, narrowed by the filter.
func (r *ProductRepository) List(ctx context.Context, filter repositories.ProductListFilter) ([]domain.Product, error) {
	if r == nil || r.provider == nil {
		return nil, errors.New("product repository not initialised")
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Category != "" {
			q = q.Where("category", "==", string(filter.Category))
		}
		if filter.FeaturedOnly {
			q = q.Where("featured", "==", true)
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

	out := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentToProduct(doc.ID, doc.Data))
	}
	return out, nil
}

func productToDocument(product domain.Product) productDocument {
	sizes := make([]sizeVariantDocument, 0, len(product.Sizes))
	for _, size := range product.Sizes {
		sizes = append(sizes, sizeVariantDocument{Size: size.Size, Price: size.Price})
	}
	return productDocument{
		Name:        product.Name,
		Brand:       product.Brand,
		Category:    string(product.Category),
		Price:       product.Price,
		Sizes:       sizes,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Stock:       product.Stock,
		Featured:    product.Featured,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func documentToProduct(id string, doc productDocument) domain.Product {
	sizes := make([]domain.SizeVariant, 0, len(doc.Sizes))
	for _, size := range doc.Sizes {
		sizes = append(sizes, domain.SizeVariant{Size: size.Size, Price: size.Price})
	}
	return domain.Product{
		ID:          id,
		Name:        doc.Name,
		Brand:       doc.Brand,
		Category:    domain.ProductCategory(doc.Category),
		Price:       doc.Price,
		Sizes:       sizes,
		Description: doc.Description,
		ImageURL:    doc.ImageURL,
		Stock:       doc.Stock,
		Featured:    doc.Featured,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}
