package services

import (
	"math"
	"math/rand"

	"github.com/javajoker/ipnexus-backend/internal/models"
)

func (s *ServiceTestSuite) TestSeedStructuralInvariants() {
	s.seed()

	assets, err := s.container.Registry.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(assets, SeedAssetCount)

	for i, asset := range assets {
		s.True(asset.IPType.Valid(), asset.ID)
		s.Equal(int64(seedTotalSupply), asset.TotalSupply)
		s.GreaterOrEqual(asset.AvailableSupply, int64(0))
		s.LessOrEqual(asset.AvailableSupply, asset.TotalSupply)
		s.GreaterOrEqual(asset.Price, 0.0)
		s.LessOrEqual(asset.Price, 100.0)
		s.GreaterOrEqual(asset.RoyaltyPercentage, 0.0)
		s.LessOrEqual(asset.RoyaltyPercentage, 10.0)
		s.Require().NotNil(asset.AssetID)
		s.Equal(int64(10000000+i+1), *asset.AssetID)

		s.Require().Len(asset.Owners, 2)
		s.Equal(0.6, asset.Owners[0].Share)
		s.Equal(0.4, asset.Owners[1].Share)
		s.NoError(asset.Owners.Validate())

		s.False(asset.CreatedAt.After(testNow))
		s.True(asset.CreatedAt.After(testNow.AddDate(0, 0, -30)))

		for _, key := range []string{"registrationNumber", "expirationDate", "jurisdiction"} {
			s.Contains(asset.Metadata, key)
		}
		if (i+1)%3 == 0 {
			s.Empty(asset.ImageURL)
		} else {
			s.NotEmpty(asset.ImageURL)
		}
	}

	listings, err := s.container.Listings.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(listings, SeedAssetCount/2)

	for _, listing := range listings {
		asset, err := s.container.Registry.Get(s.ctx, listing.TokenID)
		s.Require().NoError(err)

		s.Equal(asset.Owners[0].Address, listing.Seller)
		s.Equal(asset.TotalSupply/10, listing.Amount)
		s.InDelta(asset.Price*1.1, listing.PricePerUnit, 0.0001)
		s.Equal(models.ListingStatusActive, listing.Status)
		s.Require().NotNil(listing.ExpiresAt)
		s.False(listing.ExpiresAt.Before(testNow))
	}
	s.Equal("listing-0", listings[0].ID)
	s.Equal("token-1", listings[0].TokenID)
}

func (s *ServiceTestSuite) TestSeedOnlyIntoEmptyStore() {
	s.seed()

	seeded, err := NewSeeder(rand.New(rand.NewSource(7)), fixedClock).Seed(s.ctx, s.store)
	s.Require().NoError(err)
	s.False(seeded)

	count, err := s.store.Assets.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(SeedAssetCount), count)
}

func (s *ServiceTestSuite) TestSeedPricesHaveTwoDecimals() {
	s.seed()

	assets, err := s.container.Registry.List(s.ctx)
	s.Require().NoError(err)
	for _, asset := range assets {
		s.InDelta(0, math.Abs(asset.Price*100-math.Round(asset.Price*100)), 1e-6)
	}
}
