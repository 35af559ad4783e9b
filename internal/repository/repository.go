// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/javajoker/ipnexus-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional write finds the record in a
	// different state than expected, or when an identity is already taken.
	ErrConflict = errors.New("record changed concurrently")
)

const assetIDBase = 10000000

// AssetRepository stores IP asset records in insertion order. Records are
// never deleted.
type AssetRepository interface {
	List(ctx context.Context) ([]models.IPAsset, error)
	Get(ctx context.Context, id string) (*models.IPAsset, error)
	// Create assigns ID, AssetID and Position when they are unset.
	Create(ctx context.Context, asset *models.IPAsset) error
	// Update replaces a stored record. CreatedAt and Position are kept.
	Update(ctx context.Context, asset *models.IPAsset) error
	Count(ctx context.Context) (int64, error)
}

// ListingRepository stores marketplace listings in insertion order.
type ListingRepository interface {
	List(ctx context.Context) ([]models.Listing, error)
	Get(ctx context.Context, id string) (*models.Listing, error)
	ListByToken(ctx context.Context, tokenID string) ([]models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	// CompareAndSwap writes next only if the stored amount and status still
	// match expected. Otherwise it returns ErrConflict and writes nothing.
	CompareAndSwap(ctx context.Context, expected, next models.Listing) error
}

// Store bundles the repositories backing one process.
type Store struct {
	Assets   AssetRepository
	Listings ListingRepository
}

func NewMemoryStore() *Store {
	return &Store{
		Assets:   NewMemoryAssetRepository(),
		Listings: NewMemoryListingRepository(),
	}
}

// copyAssetIdentity copies the fields a store assigns on create from stored
// back to the caller's record.
func copyAssetIdentity(asset, stored *models.IPAsset) {
	asset.ID = stored.ID
	asset.AssetID = stored.AssetID
	asset.Position = stored.Position
	asset.CreatedAt = stored.CreatedAt
}

func assignAssetIdentity(asset *models.IPAsset, position int64) {
	asset.Position = position
	if asset.ID == "" {
		asset.ID = fmt.Sprintf("token-%d", position)
	}
	if asset.AssetID == nil {
		id := int64(assetIDBase) + position
		asset.AssetID = &id
	}
}
