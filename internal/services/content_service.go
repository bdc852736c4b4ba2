package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	domain "github.com/ayvora/api/internal/domain"
	"github.com/ayvora/api/internal/repositories"
)

const (
	bannerIDPrefix     = "ban_"
	reviewIDPrefix     = "rev_"
	defaultReviewLimit = 50
	maxReviewComment   = 2000
)

var (
	// ErrContentInvalidInput indicates validation failures for content operations.
	ErrContentInvalidInput = errors.New("content: invalid input")
	// ErrContentNotFound indicates the banner or review does not exist.
	ErrContentNotFound = errors.New("content: not found")
	// ErrContentUnavailable indicates the content store could not be reached.
	ErrContentUnavailable = errors.New("content: store unavailable")
)

// ContentServiceDeps bundles collaborators required to construct a ContentService.
type ContentServiceDeps struct {
	Banners     repositories.BannerRepository
	Settings    repositories.SettingsRepository
	Reviews     repositories.ReviewRepository
	Sanitizer   *bluemonday.Policy
	Clock       func() time.Time
	IDGenerator func() string
}

type contentService struct {
	banners  repositories.BannerRepository
	settings repositories.SettingsRepository
	reviews  repositories.ReviewRepository
	sanitize *bluemonday.Policy
	clock    func() time.Time
	newID    func() string
}

// NewContentService wires dependencies into a concrete ContentService implementation.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Banners == nil {
		return nil, errors.New("content service: banner repository is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("content service: settings repository is required")
	}
	if deps.Reviews == nil {
		return nil, errors.New("content service: review repository is required")
	}

	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}

	return &contentService{
		banners:  deps.Banners,
		settings: deps.Settings,
		reviews:  deps.Reviews,
		sanitize: sanitizer,
		clock:    func() time.Time { return clock().UTC() },
		newID:    idGen,
	}, nil
}

func (s *contentService) ActiveBanners(ctx context.Context) ([]Banner, error) {
	banners, err := s.banners.ListActive(ctx)
	if err != nil {
		return nil, s.mapContentError(err)
	}
	return banners, nil
}

func (s *contentService) AllBanners(ctx context.Context) ([]Banner, error) {
	banners, err := s.banners.ListAll(ctx)
	if err != nil {
		return nil, s.mapContentError(err)
	}
	return banners, nil
}

func (s *contentService) SaveBanner(ctx context.Context, cmd SaveBannerCommand) (Banner, error) {
	title := strings.TrimSpace(cmd.Title)
	if title == "" {
		return Banner{}, fmt.Errorf("%w: banner title is required", ErrContentInvalidInput)
	}
	if strings.TrimSpace(cmd.ImageURL) == "" {
		return Banner{}, fmt.Errorf("%w: banner image is required", ErrContentInvalidInput)
	}

	banner := domain.Banner{
		ID:       strings.TrimSpace(cmd.ID),
		Title:    title,
		Subtitle: strings.TrimSpace(cmd.Subtitle),
		ImageURL: strings.TrimSpace(cmd.ImageURL),
		LinkURL:  strings.TrimSpace(cmd.LinkURL),
		Order:    cmd.Order,
		Active:   cmd.Active,
	}

	if banner.ID == "" {
		banner.ID = bannerIDPrefix + s.newID()
		if err := s.banners.Insert(ctx, banner); err != nil {
			return Banner{}, s.mapContentError(err)
		}
		return banner, nil
	}

	if err := s.banners.Update(ctx, banner); err != nil {
		return Banner{}, s.mapContentError(err)
	}
	return banner, nil
}

func (s *contentService) DeleteBanner(ctx context.Context, bannerID string) error {
	if strings.TrimSpace(bannerID) == "" {
		return fmt.Errorf("%w: banner id is required", ErrContentInvalidInput)
	}
	if err := s.banners.Delete(ctx, bannerID); err != nil {
		return s.mapContentError(err)
	}
	return nil
}

// Settings returns the store configuration, falling back to the published
// defaults when the singleton document does not exist yet.
func (s *contentService) Settings(ctx context.Context) (StoreSettings, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.DefaultStoreSettings(), nil
		}
		return StoreSettings{}, s.mapContentError(err)
	}
	return settings, nil
}

func (s *contentService) SaveSettings(ctx context.Context, settings StoreSettings) (StoreSettings, error) {
	if settings.Fees.DeliveryCharge < 0 || settings.Fees.FreeDeliveryThreshold < 0 || settings.Fees.WrappingFee < 0 {
		return StoreSettings{}, fmt.Errorf("%w: fees must not be negative", ErrContentInvalidInput)
	}

	settings.Announcement = s.sanitize.Sanitize(strings.TrimSpace(settings.Announcement))
	settings.ReturnPolicy = s.sanitize.Sanitize(strings.TrimSpace(settings.ReturnPolicy))
	settings.UpdatedAt = s.clock()

	if err := s.settings.Save(ctx, settings); err != nil {
		return StoreSettings{}, s.mapContentError(err)
	}
	return settings, nil
}

func (s *contentService) CreateReview(ctx context.Context, cmd CreateReviewCommand) (Review, error) {
	productID := strings.TrimSpace(cmd.ProductID)
	if productID == "" {
		return Review{}, fmt.Errorf("%w: product id is required", ErrContentInvalidInput)
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrContentInvalidInput)
	}

	author := s.sanitize.Sanitize(strings.TrimSpace(cmd.Author))
	if author == "" {
		author = "Anonymous"
	}
	comment := s.sanitize.Sanitize(strings.TrimSpace(cmd.Comment))
	if comment == "" {
		return Review{}, fmt.Errorf("%w: comment is required", ErrContentInvalidInput)
	}
	if len(comment) > maxReviewComment {
		return Review{}, fmt.Errorf("%w: comment exceeds %d characters", ErrContentInvalidInput, maxReviewComment)
	}

	review := domain.Review{
		ID:        reviewIDPrefix + s.newID(),
		ProductID: productID,
		Author:    author,
		Rating:    cmd.Rating,
		Comment:   comment,
		CreatedAt: s.clock(),
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return Review{}, s.mapContentError(err)
	}
	return review, nil
}

func (s *contentService) DeleteReview(ctx context.Context, reviewID string) error {
	if strings.TrimSpace(reviewID) == "" {
		return fmt.Errorf("%w: review id is required", ErrContentInvalidInput)
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return s.mapContentError(err)
	}
	return nil
}

func (s *contentService) ListReviews(ctx context.Context, productID string, limit int) ([]Review, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrContentInvalidInput)
	}
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	reviews, err := s.reviews.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, s.mapContentError(err)
	}
	return reviews, nil
}

func (s *contentService) mapContentError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return ErrContentNotFound
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrContentUnavailable, err)
		}
	}
	return err
}
