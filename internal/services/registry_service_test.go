package services

import (
	"errors"
	"strings"
	"time"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

func (s *ServiceTestSuite) TestCreateThenGet() {
	registry := NewRegistryService(s.store.Assets, utils.NoDelay{}, config.LatencyConfig{}, utils.SystemClock)
	before := time.Now().UTC()

	created, err := registry.Create(s.ctx, &models.TokenizationRequest{
		Name:              "Patent A",
		Description:       "A patent for a better mousetrap",
		IPType:            models.IPTypePatent,
		TotalSupply:       1000,
		RoyaltyPercentage: 5,
		Price:             2,
		Metadata:          models.JSONB{"jurisdiction": "US"},
	}, "ALGOCREATOR1")
	s.Require().NoError(err)

	got, err := registry.Get(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(got.TotalSupply, got.AvailableSupply)
	s.False(got.CreatedAt.Before(before))
	s.Equal("ALGOCREATOR1", got.Creator)
	s.Equal(models.Owners{{Address: "ALGOCREATOR1", Share: 1}}, got.Owners)
	s.Equal("US", got.Metadata["jurisdiction"])
	s.True(strings.HasPrefix(got.Metadata["contractTxId"].(string), "TX"))
	s.Require().NotNil(got.AssetID)
	s.Equal(int64(10000001), *got.AssetID)
}

func (s *ServiceTestSuite) TestCreateGeneratesCreatorWhenMissing() {
	asset := s.mint("Anonymous", 10, 1, 1, "")
	s.True(utils.IsWalletAddress(asset.Creator))
	s.Equal(1.0, asset.ShareOf(asset.Creator))
}

func (s *ServiceTestSuite) TestCreateRejectsInvalidForm() {
	_, err := s.container.Registry.Create(s.ctx, &models.TokenizationRequest{
		Name:              "ab",
		Description:       "too short",
		IPType:            "song",
		TotalSupply:       0,
		RoyaltyPercentage: 30,
		Price:             0,
	}, "ALGOCREATOR1")

	s.Require().Error(err)
	s.True(errors.Is(err, ErrInvalidAsset))
	s.Len(utils.GetValidationErrors(err), 6)

	count, err := s.store.Assets.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceTestSuite) TestGetUnknownAsset() {
	_, err := s.container.Registry.Get(s.ctx, "token-404")
	s.True(errors.Is(err, ErrAssetNotFound))
	s.Equal(ReasonNotFound, ReasonFor(err))
}

func (s *ServiceTestSuite) TestSearch() {
	s.mint("Solar Patent", 10, 1, 5, "ALGOCREATOR1")
	s.mint("Wind Patent", 10, 1, 1, "ALGOCREATOR1")
	song, err := s.container.Registry.Create(s.ctx, &models.TokenizationRequest{
		Name:        "Song Lyrics",
		Description: "Copyrighted lyrics about solar power",
		IPType:      models.IPTypeCopyright,
		TotalSupply: 10,
		Price:       3,
	}, "ALGOCREATOR2")
	s.Require().NoError(err)

	result, err := s.container.Registry.Search(s.ctx, AssetSearchParams{
		PaginationParams: utils.PaginationParams{Search: "SOLAR", Sort: SortPriceLow},
	})
	s.Require().NoError(err)
	s.Equal(int64(3), result.Total)
	s.Equal(int64(2), result.Matched)
	s.Equal(song.ID, result.Assets[0].ID)
	s.Equal("Solar Patent", result.Assets[1].Name)

	result, err = s.container.Registry.Search(s.ctx, AssetSearchParams{
		PaginationParams: utils.PaginationParams{Sort: SortPriceHigh, Limit: 1, Page: 2},
		IPType:           models.IPTypePatent,
	})
	s.Require().NoError(err)
	s.Equal(int64(2), result.Matched)
	s.Require().Len(result.Assets, 1)
	s.Equal("Wind Patent", result.Assets[0].Name)
}

func (s *ServiceTestSuite) TestPortfolio() {
	s.seed()
	assets, err := s.container.Registry.List(s.ctx)
	s.Require().NoError(err)
	owner := assets[0].Owners[0].Address

	portfolio, err := s.container.Registry.Portfolio(s.ctx, owner)
	s.Require().NoError(err)
	s.Equal(1, portfolio.AssetCount)
	s.Equal(0.6, portfolio.Holdings[0].Share)
	s.InDelta(assets[0].Price*0.6*float64(assets[0].TotalSupply), portfolio.TotalValue, 0.01)
	s.Equal(1, portfolio.CountsByType[assets[0].IPType])

	empty, err := s.container.Registry.Portfolio(s.ctx, "ALGONOBODY00")
	s.Require().NoError(err)
	s.Zero(empty.AssetCount)
	s.Empty(empty.Holdings)
}

func (s *ServiceTestSuite) TestAttachImage() {
	asset := s.mint("Pictured", 10, 1, 1, "ALGOCREATOR1")

	updated, err := s.container.Registry.AttachImage(s.ctx, asset.ID, "https://cdn.example.com/a.png")
	s.Require().NoError(err)
	s.Equal("https://cdn.example.com/a.png", updated.ImageURL)
	s.True(updated.CreatedAt.Equal(asset.CreatedAt))

	_, err = s.container.Registry.AttachImage(s.ctx, "token-404", "https://cdn.example.com/b.png")
	s.True(errors.Is(err, ErrAssetNotFound))
}
