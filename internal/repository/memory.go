// internal/repository/memory.go
package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/javajoker/ipnexus-backend/internal/models"
)

// MemoryAssetRepository keeps assets in a slice. All reads return copies.
type MemoryAssetRepository struct {
	mu     sync.RWMutex
	assets []models.IPAsset
	index  map[string]int
}

func NewMemoryAssetRepository() *MemoryAssetRepository {
	return &MemoryAssetRepository{index: make(map[string]int)}
}

func (r *MemoryAssetRepository) List(ctx context.Context) ([]models.IPAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.IPAsset, len(r.assets))
	for i, a := range r.assets {
		out[i] = a.Clone()
	}
	return out, nil
}

func (r *MemoryAssetRepository) Get(ctx context.Context, id string) (*models.IPAsset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
	}
	asset := r.assets[i].Clone()
	return &asset, nil
}

func (r *MemoryAssetRepository) Create(ctx context.Context, asset *models.IPAsset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	generated := asset.ID == ""
	var next models.IPAsset
	for position := int64(len(r.assets)) + 1; ; position++ {
		next = asset.Clone()
		assignAssetIdentity(&next, position)
		if _, exists := r.index[next.ID]; !exists {
			break
		}
		if !generated {
			return fmt.Errorf("asset %s: %w", next.ID, ErrConflict)
		}
	}

	r.index[next.ID] = len(r.assets)
	r.assets = append(r.assets, next.Clone())
	copyAssetIdentity(asset, &next)
	return nil
}

func (r *MemoryAssetRepository) Update(ctx context.Context, asset *models.IPAsset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[asset.ID]
	if !ok {
		return fmt.Errorf("asset %s: %w", asset.ID, ErrNotFound)
	}
	stored := r.assets[i]
	next := asset.Clone()
	next.CreatedAt = stored.CreatedAt
	next.Position = stored.Position
	r.assets[i] = next

	asset.CreatedAt = stored.CreatedAt
	asset.Position = stored.Position
	return nil
}

func (r *MemoryAssetRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.assets)), nil
}

// MemoryListingRepository keeps listings in a slice guarded by one mutex.
type MemoryListingRepository struct {
	mu       sync.RWMutex
	listings []models.Listing
	index    map[string]int
}

func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{index: make(map[string]int)}
}

func (r *MemoryListingRepository) List(ctx context.Context) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Listing, len(r.listings))
	for i, l := range r.listings {
		out[i] = l.Clone()
	}
	return out, nil
}

func (r *MemoryListingRepository) Get(ctx context.Context, id string) (*models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	listing := r.listings[i].Clone()
	return &listing, nil
}

func (r *MemoryListingRepository) ListByToken(ctx context.Context, tokenID string) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Listing
	for _, l := range r.listings {
		if l.TokenID == tokenID {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (r *MemoryListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if listing.ID == "" {
		return fmt.Errorf("listing id is empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[listing.ID]; exists {
		return fmt.Errorf("listing %s: %w", listing.ID, ErrConflict)
	}
	listing.Position = int64(len(r.listings)) + 1
	r.index[listing.ID] = len(r.listings)
	r.listings = append(r.listings, listing.Clone())
	return nil
}

func (r *MemoryListingRepository) CompareAndSwap(ctx context.Context, expected, next models.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[expected.ID]
	if !ok {
		return fmt.Errorf("listing %s: %w", expected.ID, ErrNotFound)
	}
	stored := r.listings[i]
	if stored.Amount != expected.Amount || stored.Status != expected.Status {
		return fmt.Errorf("listing %s: %w", expected.ID, ErrConflict)
	}

	updated := next.Clone()
	updated.ID = stored.ID
	updated.TokenID = stored.TokenID
	updated.CreatedAt = stored.CreatedAt
	updated.Position = stored.Position
	r.listings[i] = updated
	return nil
}
