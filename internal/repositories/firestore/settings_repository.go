package firestore

import (
	"context"
	"errors"
	"time"

	"github.com/ayvora/api/internal/domain"
	pfirestore "github.com/ayvora/api/internal/platform/firestore"
)

const (
	settingsCollection = "settings"
	settingsDocumentID = "store_config"
)

type feeConfigDocument struct {
	DeliveryCharge        int64 `firestore:"deliveryCharge"`
	FreeDeliveryThreshold int64 `firestore:"freeDeliveryThreshold"`
	WrappingFee           int64 `firestore:"wrappingFee"`
}

type settingsDocument struct {
	Fees         feeConfigDocument `firestore:"fees"`
	Announcement string            `firestore:"announcement"`
	ReturnPolicy string            `firestore:"returnPolicy"`
	UpdatedAt    time.Time         `firestore:"updatedAt"`
}

// SettingsRepository owns the singleton store configuration document.
type SettingsRepository struct {
	provider *pfirestore.Provider
	settings *pfirestore.BaseRepository[settingsDocument]
}

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[settingsDocument](provider, settingsCollection)
	return &SettingsRepository{provider: provider, settings: base}, nil
}

// Get fetches the store configuration. Callers should fall back to
// domain.DefaultStoreSettings when the document does not exist yet.
func (r *SettingsRepository) Get(ctx context.Context) (domain.StoreSettings, error) {
	if r == nil || r.provider == nil {
		return domain.StoreSettings{}, errors.New("settings repository not initialised")
	}
	doc, err := r.settings.Get(ctx, settingsDocumentID)
	if err != nil {
		return domain.StoreSettings{}, err
	}
	return domain.StoreSettings{
		Fees: domain.FeeConfig{
			DeliveryCharge:        doc.Data.Fees.DeliveryCharge,
			FreeDeliveryThreshold: doc.Data.Fees.FreeDeliveryThreshold,
			WrappingFee:           doc.Data.Fees.WrappingFee,
		},
		Announcement: doc.Data.Announcement,
		ReturnPolicy: doc.Data.ReturnPolicy,
		UpdatedAt:    doc.Data.UpdatedAt,
	}, nil
}

// Save upserts the store configuration.
func (r *SettingsRepository) Save(ctx context.Context, settings domain.StoreSettings) error {
	if r == nil || r.provider == nil {
		return errors.New("settings repository not initialised")
	}
	_, err := r.settings.Set(ctx, settingsDocumentID, settingsDocument{
		Fees: feeConfigDocument{
			DeliveryCharge:        settings.Fees.DeliveryCharge,
			FreeDeliveryThreshold: settings.Fees.FreeDeliveryThreshold,
			WrappingFee:           settings.Fees.WrappingFee,
		},
		Announcement: settings.Announcement,
		ReturnPolicy: settings.ReturnPolicy,
		UpdatedAt:    settings.UpdatedAt,
	})
	return err
}
