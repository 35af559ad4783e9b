// internal/services/listing_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/metrics"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/repository"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrInsufficientAmount = errors.New("amount exceeds the listing's remaining amount")
	ErrListingInactive    = errors.New("listing is not active")
	ErrListingChanged     = errors.New("listing changed before the purchase completed")
	ErrNotSeller          = errors.New("only the seller can cancel a listing")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidPrice       = errors.New("price must be greater than zero")
	ErrNoMatchingListing  = errors.New("no active listing at or below the offered price")
)

type ListingService struct {
	listings repository.ListingRepository
	assets   repository.AssetRepository
	delay    utils.Delayer
	latency  config.LatencyConfig
	now      utils.Clock
}

// OpenListingRequest opens a listing. An empty Kind opens a book listing.
type OpenListingRequest struct {
	TokenID      string             `json:"tokenId" validate:"required"`
	Seller       string             `json:"seller" validate:"required"`
	Amount       int64              `json:"amount" validate:"min=1"`
	PricePerUnit float64            `json:"pricePerUnit" validate:"gt=0"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty"`
	Kind         models.ListingKind `json:"kind,omitempty" validate:"omitempty,oneof=book sale"`
}

func NewListingService(listings repository.ListingRepository, assets repository.AssetRepository, delay utils.Delayer, latency config.LatencyConfig, now utils.Clock) *ListingService {
	return &ListingService{
		listings: listings,
		assets:   assets,
		delay:    delay,
		latency:  latency,
		now:      now,
	}
}

func (s *ListingService) List(ctx context.Context) ([]models.Listing, error) {
	if err := s.delay.Wait(ctx, s.latency.ListListing); err != nil {
		return nil, err
	}
	listings, err := s.listings.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

func (s *ListingService) Get(ctx context.Context, id string) (*models.Listing, error) {
	listing, err := s.listings.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, id)
		}
		return nil, fmt.Errorf("failed to load listing %s: %w", id, err)
	}
	return listing, nil
}

// ActiveForToken returns the token's active listings, cheapest first.
func (s *ListingService) ActiveForToken(ctx context.Context, tokenID string) ([]models.Listing, error) {
	listings, err := s.listings.ListByToken(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings for %s: %w", tokenID, err)
	}

	active := listings[:0]
	for _, l := range listings {
		if l.IsActive() {
			active = append(active, l)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].PricePerUnit < active[j].PricePerUnit })
	return active, nil
}

func (s *ListingService) activeOfKind(ctx context.Context, tokenID string, kind models.ListingKind) ([]models.Listing, error) {
	active, err := s.ActiveForToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	matching := active[:0]
	for _, l := range active {
		if l.Kind == kind {
			matching = append(matching, l)
		}
	}
	return matching, nil
}

// LowestAsk returns the cheapest active price among the token's listings of
// the given kind, or nil when there is none.
func (s *ListingService) LowestAsk(ctx context.Context, tokenID string, kind models.ListingKind) (*float64, error) {
	active, err := s.activeOfKind(ctx, tokenID, kind)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}
	price := active[0].PricePerUnit
	return &price, nil
}

func (s *ListingService) Open(ctx context.Context, req OpenListingRequest) (*models.Listing, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.PricePerUnit <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.Kind == "" {
		req.Kind = models.ListingKindBook
	}
	if err := utils.ValidateStruct(&req); err != nil {
		return nil, fmt.Errorf("invalid listing: %w", err)
	}

	asset, err := s.assets.Get(ctx, req.TokenID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, req.TokenID)
		}
		return nil, fmt.Errorf("failed to load asset %s: %w", req.TokenID, err)
	}
	if req.Amount > asset.TotalSupply {
		return nil, fmt.Errorf("%w: %d exceeds total supply %d", ErrInsufficientAmount, req.Amount, asset.TotalSupply)
	}

	listing := &models.Listing{
		ID:           "listing-" + uuid.NewString(),
		TokenID:      req.TokenID,
		Seller:       req.Seller,
		Amount:       req.Amount,
		PricePerUnit: req.PricePerUnit,
		CreatedAt:    s.now(),
		ExpiresAt:    req.ExpiresAt,
		Status:       models.ListingStatusActive,
		Kind:         req.Kind,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"listing_id": listing.ID,
		"token_id":   listing.TokenID,
		"amount":     listing.Amount,
		"price":      listing.PricePerUnit,
		"kind":       listing.Kind,
	}).Info("Listing opened")

	return listing, nil
}

// Purchase takes amount units from a listing. The remaining amount is read
// before the simulated latency and written back with a compare-and-swap, so a
// purchase that raced another one fails with ErrListingChanged instead of
// overdrawing the listing.
func (s *ListingService) Purchase(ctx context.Context, listingID string, amount int64, buyer string) (*models.Listing, error) {
	listing, err := s.purchase(ctx, listingID, amount, buyer)
	metrics.ListingPurchases.WithLabelValues(ReasonFor(err)).Inc()
	return listing, err
}

func (s *ListingService) purchase(ctx context.Context, listingID string, amount int64, buyer string) (*models.Listing, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	current, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !current.IsActive() {
		return nil, fmt.Errorf("%w: %s is %s", ErrListingInactive, listingID, current.Status)
	}
	if amount > current.Amount {
		return nil, fmt.Errorf("%w: requested %d, remaining %d", ErrInsufficientAmount, amount, current.Amount)
	}

	if err := s.delay.Wait(ctx, s.latency.Purchase); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.Amount -= amount
	if next.Amount == 0 {
		next.Status = models.ListingStatusSold
	}

	if err := s.listings.CompareAndSwap(ctx, *current, next); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: %s", ErrListingChanged, listingID)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", ErrListingNotFound, listingID)
		default:
			return nil, fmt.Errorf("failed to update listing %s: %w", listingID, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"listing_id": listingID,
		"amount":     amount,
		"remaining":  next.Amount,
		"buyer":      utils.FormatAddress(buyer),
	}).Info("Listing purchased")

	return &next, nil
}

// BuyFraction buys amount units of a token from the cheapest active listing
// of kind priced at or below maxPrice that still has enough remaining.
func (s *ListingService) BuyFraction(ctx context.Context, tokenID string, kind models.ListingKind, amount int64, maxPrice float64, buyer string) (*models.Listing, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	active, err := s.activeOfKind(ctx, tokenID, kind)
	if err != nil {
		return nil, err
	}

	offer := decimal.NewFromFloat(maxPrice)
	for _, l := range active {
		if decimal.NewFromFloat(l.PricePerUnit).GreaterThan(offer) {
			break
		}
		if l.Amount >= amount {
			return s.Purchase(ctx, l.ID, amount, buyer)
		}
	}
	return nil, fmt.Errorf("%w: %s at %v", ErrNoMatchingListing, tokenID, maxPrice)
}

// Cancel withdraws an active or sold listing. Only its seller may cancel it.
func (s *ListingService) Cancel(ctx context.Context, listingID, seller string) (*models.Listing, error) {
	current, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if current.Seller != seller {
		return nil, ErrNotSeller
	}
	return s.cancel(ctx, current)
}

func (s *ListingService) cancel(ctx context.Context, current *models.Listing) (*models.Listing, error) {
	listingID := current.ID
	if current.Status != models.ListingStatusActive && current.Status != models.ListingStatusSold {
		return nil, fmt.Errorf("%w: %s is %s", ErrListingInactive, listingID, current.Status)
	}

	next := current.Clone()
	next.Status = models.ListingStatusCancelled
	if err := s.listings.CompareAndSwap(ctx, *current, next); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: %s", ErrListingChanged, listingID)
		}
		return nil, fmt.Errorf("failed to cancel listing %s: %w", listingID, err)
	}
	return &next, nil
}

// CancelActive cancels every active listing of kind on tokenID, whoever the
// seller is.
func (s *ListingService) CancelActive(ctx context.Context, tokenID string, kind models.ListingKind) (int, error) {
	active, err := s.activeOfKind(ctx, tokenID, kind)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for i := range active {
		if _, err := s.cancel(ctx, &active[i]); err != nil {
			return cancelled, err
		}
		cancelled++
	}
	return cancelled, nil
}

// ExpireStale marks active listings whose expiry has passed as expired. A
// listing that changes underneath the sweep is left for the next run.
func (s *ListingService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	listings, err := s.listings.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list listings: %w", err)
	}

	expired := 0
	for _, l := range listings {
		if !l.ExpiredAt(now) {
			continue
		}
		next := l.Clone()
		next.Status = models.ListingStatusExpired
		if err := s.listings.CompareAndSwap(ctx, l, next); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return expired, fmt.Errorf("failed to expire listing %s: %w", l.ID, err)
		}
		expired++
	}

	if expired > 0 {
		metrics.ListingsExpired.Add(float64(expired))
		logrus.WithField("count", expired).Info("Expired stale listings")
	}
	return expired, nil
}

// RunExpirySweeper calls ExpireStale every interval until ctx is done.
func (s *ListingService) RunExpirySweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ExpireStale(ctx, s.now()); err != nil && ctx.Err() == nil {
				logrus.WithError(err).Warn("Listing expiry sweep failed")
			}
		}
	}
}
