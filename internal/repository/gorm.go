// internal/repository/gorm.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/ipnexus-backend/internal/models"
)

const maxCreateAttempts = 5

// NewGormStore builds repositories over an already migrated database.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Assets:   &GormAssetRepository{db: db},
		Listings: &GormListingRepository{db: db},
	}
}

type GormAssetRepository struct {
	db *gorm.DB
}

func (r *GormAssetRepository) List(ctx context.Context) ([]models.IPAsset, error) {
	var assets []models.IPAsset
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (r *GormAssetRepository) Get(ctx context.Context, id string) (*models.IPAsset, error) {
	var asset models.IPAsset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, translate("asset", id, err)
	}
	return &asset, nil
}

// Create retries with the next position when a generated identity is taken,
// which happens when two creates read the same MAX(position).
func (r *GormAssetRepository) Create(ctx context.Context, asset *models.IPAsset) error {
	generated := asset.ID == ""

	var err error
	for attempt := int64(0); attempt < maxCreateAttempts; attempt++ {
		next := asset.Clone()
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			position, err := nextPosition(tx, &models.IPAsset{})
			if err != nil {
				return err
			}
			assignAssetIdentity(&next, position+attempt)
			return tx.Create(&next).Error
		})
		if err == nil {
			copyAssetIdentity(asset, &next)
			return nil
		}
		if !generated || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return translate("asset", next.ID, err)
		}
	}
	return translate("asset", asset.ID, err)
}

func (r *GormAssetRepository) Update(ctx context.Context, asset *models.IPAsset) error {
	result := r.db.WithContext(ctx).
		Model(&models.IPAsset{}).
		Where("id = ?", asset.ID).
		Select("*").
		Omit("id", "created_at", "position").
		Updates(asset)
	if result.Error != nil {
		return translate("asset", asset.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("asset %s: %w", asset.ID, ErrNotFound)
	}
	return nil
}

func (r *GormAssetRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.IPAsset{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return count, nil
}

type GormListingRepository struct {
	db *gorm.DB
}

func (r *GormListingRepository) List(ctx context.Context) ([]models.Listing, error) {
	var listings []models.Listing
	if err := r.db.WithContext(ctx).Order("position ASC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

func (r *GormListingRepository) Get(ctx context.Context, id string) (*models.Listing, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error; err != nil {
		return nil, translate("listing", id, err)
	}
	return &listing, nil
}

func (r *GormListingRepository) ListByToken(ctx context.Context, tokenID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Order("position ASC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for %s: %w", tokenID, err)
	}
	return listings, nil
}

func (r *GormListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if listing.ID == "" {
		return fmt.Errorf("listing id is empty")
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		position, err := nextPosition(tx, &models.Listing{})
		if err != nil {
			return err
		}
		listing.Position = position
		return tx.Create(listing).Error
	})
	if err != nil {
		return translate("listing", listing.ID, err)
	}
	return nil
}

// CompareAndSwap issues a conditional UPDATE and inspects RowsAffected.
func (r *GormListingRepository) CompareAndSwap(ctx context.Context, expected, next models.Listing) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.Listing{}).
		Where("id = ? AND amount = ? AND status = ?", expected.ID, expected.Amount, expected.Status).
		Updates(map[string]interface{}{
			"amount":         next.Amount,
			"status":         next.Status,
			"price_per_unit": next.PricePerUnit,
			"seller":         next.Seller,
			"expires_at":     next.ExpiresAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update listing %s: %w", expected.ID, result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.Model(&models.Listing{}).Where("id = ?", expected.ID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check listing %s: %w", expected.ID, err)
	}
	if count == 0 {
		return fmt.Errorf("listing %s: %w", expected.ID, ErrNotFound)
	}
	return fmt.Errorf("listing %s: %w", expected.ID, ErrConflict)
}

func nextPosition(tx *gorm.DB, model interface{}) (int64, error) {
	var last int64
	if err := tx.Model(model).Select("COALESCE(MAX(position), 0)").Row().Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to read insertion position: %w", err)
	}
	return last + 1, nil
}

func translate(kind, id string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s %s: %w", kind, id, ErrConflict)
	default:
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
}
