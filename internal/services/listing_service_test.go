package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

func (s *ServiceTestSuite) openListing(tokenID, seller string, amount int64, price float64) *models.Listing {
	listing, err := s.container.Listings.Open(s.ctx, OpenListingRequest{
		TokenID:      tokenID,
		Seller:       seller,
		Amount:       amount,
		PricePerUnit: price,
	})
	s.Require().NoError(err)
	return listing
}

func (s *ServiceTestSuite) TestPurchaseExceedingAmountLeavesListingUnchanged() {
	asset := s.mint("Listed", 100, 1, 1, "ALGOSELLER01")
	listing := s.openListing(asset.ID, "ALGOSELLER01", 10, 1.5)

	_, err := s.container.Listings.Purchase(s.ctx, listing.ID, 11, "ALGOBUYER001")
	s.True(errors.Is(err, ErrInsufficientAmount))
	s.Equal(ReasonInsufficientAmount, ReasonFor(err))

	got, err := s.container.Listings.Get(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(int64(10), got.Amount)
	s.Equal(models.ListingStatusActive, got.Status)
}

func (s *ServiceTestSuite) TestPurchasesExhaustListing() {
	asset := s.mint("Listed", 100, 1, 1, "ALGOSELLER01")
	listing := s.openListing(asset.ID, "ALGOSELLER01", 10, 1.5)

	first, err := s.container.Listings.Purchase(s.ctx, listing.ID, 4, "ALGOBUYER001")
	s.Require().NoError(err)
	s.Equal(int64(6), first.Amount)
	s.Equal(models.ListingStatusActive, first.Status)

	second, err := s.container.Listings.Purchase(s.ctx, listing.ID, 6, "ALGOBUYER002")
	s.Require().NoError(err)
	s.Equal(int64(0), second.Amount)
	s.Equal(models.ListingStatusSold, second.Status)

	_, err = s.container.Listings.Purchase(s.ctx, listing.ID, 1, "ALGOBUYER003")
	s.Error(err)
	s.True(errors.Is(err, ErrListingInactive))

	got, err := s.container.Listings.Get(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), got.Amount)
	s.Equal(models.ListingStatusSold, got.Status)
}

func (s *ServiceTestSuite) TestPurchaseUnknownListingAndBadAmount() {
	_, err := s.container.Listings.Purchase(s.ctx, "listing-404", 1, "ALGOBUYER001")
	s.True(errors.Is(err, ErrListingNotFound))

	asset := s.mint("Listed", 100, 1, 1, "ALGOSELLER01")
	listing := s.openListing(asset.ID, "ALGOSELLER01", 10, 1.5)
	_, err = s.container.Listings.Purchase(s.ctx, listing.ID, 0, "ALGOBUYER001")
	s.True(errors.Is(err, ErrInvalidAmount))
}

func (s *ServiceTestSuite) TestConcurrentPurchasesNeverOverdraw() {
	asset := s.mint("Contested", 100, 1, 1, "ALGOSELLER01")
	listing := s.openListing(asset.ID, "ALGOSELLER01", 10, 1.5)

	const buyers = 2
	book := NewListingService(s.store.Listings, s.store.Assets, newBarrierDelay(buyers), config.LatencyConfig{}, fixedClock)

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = book.Purchase(s.ctx, listing.ID, 6, "ALGOBUYER001")
		}(i)
	}
	wg.Wait()

	var succeeded, changed int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrListingChanged):
			changed++
		}
	}
	s.Equal(1, succeeded)
	s.Equal(1, changed)

	got, err := s.container.Listings.Get(s.ctx, listing.ID)
	s.Require().NoError(err)
	s.Equal(int64(4), got.Amount)
}

func (s *ServiceTestSuite) TestBuyFractionPicksCheapestAffordable() {
	asset := s.mint("Fractions", 100, 1, 1, "ALGOSELLER01")
	expensive := s.openListing(asset.ID, "ALGOSELLER01", 5, 4)
	cheap := s.openListing(asset.ID, "ALGOSELLER02", 1, 2)

	bought, err := s.container.Listings.BuyFraction(s.ctx, asset.ID, models.ListingKindBook, 1, 4, "ALGOBUYER001")
	s.Require().NoError(err)
	s.Equal(cheap.ID, bought.ID)

	bought, err = s.container.Listings.BuyFraction(s.ctx, asset.ID, models.ListingKindBook, 2, 4, "ALGOBUYER001")
	s.Require().NoError(err)
	s.Equal(expensive.ID, bought.ID)

	_, err = s.container.Listings.BuyFraction(s.ctx, asset.ID, models.ListingKindBook, 1, 3.99, "ALGOBUYER001")
	s.True(errors.Is(err, ErrNoMatchingListing))
	s.Equal(ReasonPriceAboveOffer, ReasonFor(err))

	// book asks are never bought as a sale lot
	_, err = s.container.Listings.BuyFraction(s.ctx, asset.ID, models.ListingKindSale, 1, 100, "ALGOBUYER001")
	s.True(errors.Is(err, ErrNoMatchingListing))
}

func (s *ServiceTestSuite) TestOpenValidatesInput() {
	asset := s.mint("Open", 100, 1, 1, "ALGOSELLER01")

	_, err := s.container.Listings.Open(s.ctx, OpenListingRequest{TokenID: asset.ID, Seller: "ALGOSELLER01", Amount: 0, PricePerUnit: 1})
	s.True(errors.Is(err, ErrInvalidAmount))

	_, err = s.container.Listings.Open(s.ctx, OpenListingRequest{TokenID: asset.ID, Seller: "ALGOSELLER01", Amount: 1, PricePerUnit: 0})
	s.True(errors.Is(err, ErrInvalidPrice))

	_, err = s.container.Listings.Open(s.ctx, OpenListingRequest{TokenID: asset.ID, Seller: "ALGOSELLER01", Amount: 101, PricePerUnit: 1})
	s.True(errors.Is(err, ErrInsufficientAmount))

	_, err = s.container.Listings.Open(s.ctx, OpenListingRequest{TokenID: "token-404", Seller: "ALGOSELLER01", Amount: 1, PricePerUnit: 1})
	s.True(errors.Is(err, ErrAssetNotFound))
}

func (s *ServiceTestSuite) TestCancel() {
	asset := s.mint("Cancel", 100, 1, 1, "ALGOSELLER01")
	listing := s.openListing(asset.ID, "ALGOSELLER01", 3, 1)

	_, err := s.container.Listings.Cancel(s.ctx, listing.ID, "ALGOSOMEONE1")
	s.True(errors.Is(err, ErrNotSeller))

	cancelled, err := s.container.Listings.Cancel(s.ctx, listing.ID, "ALGOSELLER01")
	s.Require().NoError(err)
	s.Equal(models.ListingStatusCancelled, cancelled.Status)

	_, err = s.container.Listings.Cancel(s.ctx, listing.ID, "ALGOSELLER01")
	s.True(errors.Is(err, ErrListingInactive))

	ask, err := s.container.Listings.LowestAsk(s.ctx, asset.ID, models.ListingKindBook)
	s.Require().NoError(err)
	s.Nil(ask)
}

func (s *ServiceTestSuite) TestExpireStale() {
	asset := s.mint("Expiring", 100, 1, 1, "ALGOSELLER01")
	past := testNow.Add(-time.Minute)
	future := testNow.Add(time.Hour)

	stale, err := s.container.Listings.Open(s.ctx, OpenListingRequest{
		TokenID: asset.ID, Seller: "ALGOSELLER01", Amount: 1, PricePerUnit: 1, ExpiresAt: &past,
	})
	s.Require().NoError(err)
	fresh, err := s.container.Listings.Open(s.ctx, OpenListingRequest{
		TokenID: asset.ID, Seller: "ALGOSELLER01", Amount: 1, PricePerUnit: 1, ExpiresAt: &future,
	})
	s.Require().NoError(err)
	open := s.openListing(asset.ID, "ALGOSELLER01", 1, 1)

	expired, err := s.container.Listings.ExpireStale(s.ctx, testNow)
	s.Require().NoError(err)
	s.Equal(1, expired)

	for id, want := range map[string]models.ListingStatus{
		stale.ID: models.ListingStatusExpired,
		fresh.ID: models.ListingStatusActive,
		open.ID:  models.ListingStatusActive,
	} {
		got, err := s.container.Listings.Get(s.ctx, id)
		s.Require().NoError(err)
		s.Equal(want, got.Status, id)
	}

	_, err = s.container.Listings.Purchase(s.ctx, stale.ID, 1, "ALGOBUYER001")
	s.True(errors.Is(err, ErrListingInactive))
}

func (s *ServiceTestSuite) TestRunExpirySweeperStopsOnCancel() {
	asset := s.mint("Swept", 100, 1, 1, "ALGOSELLER01")
	past := testNow.Add(-time.Minute)
	stale, err := s.container.Listings.Open(s.ctx, OpenListingRequest{
		TokenID: asset.ID, Seller: "ALGOSELLER01", Amount: 1, PricePerUnit: 1, ExpiresAt: &past,
	})
	s.Require().NoError(err)

	book := NewListingService(s.store.Listings, s.store.Assets, utils.NoDelay{}, config.LatencyConfig{}, fixedClock)
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		book.RunExpirySweeper(ctx, 5*time.Millisecond)
		close(done)
	}()

	s.Eventually(func() bool {
		got, err := s.container.Listings.Get(s.ctx, stale.ID)
		return err == nil && got.Status == models.ListingStatusExpired
	}, time.Second, 5*time.Millisecond)

	cancel()
	s.Eventually(func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
