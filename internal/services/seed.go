// internal/services/seed.go
package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/repository"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

const (
	SeedAssetCount   = 8
	seedTotalSupply  = 1000000
	seedListingShare = "0.1"
	seedMarkup       = "1.1"
	day              = 24 * time.Hour
	addressCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var seedJurisdictions = []string{"US", "EU", "Global"}

// Seeder fills an empty store with sample assets and listings. Content is
// random, counts and ranges are fixed.
type Seeder struct {
	rnd *rand.Rand
	now utils.Clock
}

func NewSeeder(rnd *rand.Rand, now utils.Clock) *Seeder {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = utils.SystemClock
	}
	return &Seeder{rnd: rnd, now: now}
}

// Seed writes the sample data unless the store already holds assets. It
// reports whether anything was written.
func (s *Seeder) Seed(ctx context.Context, store *repository.Store) (bool, error) {
	count, err := store.Assets.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check store: %w", err)
	}
	if count > 0 {
		logrus.WithField("assets", count).Info("Store already populated, skipping seed")
		return false, nil
	}

	now := s.now()
	assets := make([]models.IPAsset, 0, SeedAssetCount)
	for i := 1; i <= SeedAssetCount; i++ {
		asset := s.sampleAsset(i, now)
		if err := store.Assets.Create(ctx, &asset); err != nil {
			return false, fmt.Errorf("failed to seed asset %d: %w", i, err)
		}
		assets = append(assets, asset)
	}

	listings := 0
	for index, asset := range assets {
		if index%2 != 0 {
			continue
		}
		listing := s.sampleListing(index, asset, now)
		if err := store.Listings.Create(ctx, &listing); err != nil {
			return false, fmt.Errorf("failed to seed listing %s: %w", listing.ID, err)
		}
		listings++
	}

	logrus.WithFields(logrus.Fields{
		"assets":   len(assets),
		"listings": listings,
	}).Info("Seeded sample data")
	return true, nil
}

func (s *Seeder) sampleAsset(i int, now time.Time) models.IPAsset {
	ipType := models.IPTypes[s.rnd.Intn(len(models.IPTypes))]

	asset := models.IPAsset{
		ID:                fmt.Sprintf("token-%d", i),
		Name:              fmt.Sprintf("IP Token %d", i),
		Description:       fmt.Sprintf("This is a tokenized %s asset representing intellectual property.", ipType),
		Creator:           s.address(),
		TotalSupply:       seedTotalSupply,
		AvailableSupply:   s.rnd.Int63n(seedTotalSupply + 1),
		Price:             s.round2(s.rnd.Float64() * 100),
		RoyaltyPercentage: s.round2(s.rnd.Float64() * 10),
		IPType:            ipType,
		CreatedAt:         now.Add(-time.Duration(s.rnd.Intn(30)) * day),
		Metadata: models.JSONB{
			"registrationNumber": fmt.Sprintf("REG-%d", s.rnd.Intn(10000)),
			"expirationDate":     now.Add(time.Duration(s.rnd.Intn(365)) * day).Format(time.RFC3339),
			"jurisdiction":       seedJurisdictions[s.rnd.Intn(len(seedJurisdictions))],
		},
		Owners: models.Owners{
			{Address: s.address(), Share: 0.6},
			{Address: s.address(), Share: 0.4},
		},
	}
	if i%3 != 0 {
		asset.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%d/400/300", i)
	}
	return asset
}

func (s *Seeder) sampleListing(index int, asset models.IPAsset, now time.Time) models.Listing {
	seller := asset.Creator
	if len(asset.Owners) > 0 {
		seller = asset.Owners[0].Address
	}

	amount := decimal.NewFromInt(asset.TotalSupply).Mul(decimal.RequireFromString(seedListingShare)).Floor()
	price := decimal.NewFromFloat(asset.Price).Mul(decimal.RequireFromString(seedMarkup)).Round(4)
	expires := now.Add(time.Duration(s.rnd.Intn(30)) * day)

	return models.Listing{
		ID:           fmt.Sprintf("listing-%d", index),
		TokenID:      asset.ID,
		Seller:       seller,
		Amount:       amount.IntPart(),
		PricePerUnit: price.InexactFloat64(),
		CreatedAt:    now.Add(-time.Duration(s.rnd.Intn(7)) * day),
		ExpiresAt:    &expires,
		Status:       models.ListingStatusActive,
		Kind:         models.ListingKindBook,
	}
}

// address draws a mock account address from the seeder's random source so a
// fixed seed reproduces the same data.
func (s *Seeder) address() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = addressCharset[s.rnd.Intn(len(addressCharset))]
	}
	return "ALGO" + string(b)
}

func (s *Seeder) round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
