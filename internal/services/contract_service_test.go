package services

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

func (s *ServiceTestSuite) TestListThenPurchaseResetsSalePrice() {
	owner := s.connected("ALGOOWNER001")
	buyer := s.connected("ALGOBUYER001")
	contract := s.container.Contract

	asset := s.mint("Patent A", 1000, 5, 2, "ALGOOWNER001")

	snapshot, err := contract.GetSnapshot(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Nil(snapshot.SalePrice)
	s.Equal("ALGOOWNER001", snapshot.Owner)
	s.Equal(5.0, snapshot.RoyaltyPercentage)

	listed, err := contract.ListForSale(s.ctx, owner, asset.ID, 3)
	s.Require().NoError(err)
	s.True(listed.Success)
	s.True(strings.HasPrefix(listed.TxID, "TX"))

	snapshot, err = contract.GetSnapshot(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Require().NotNil(snapshot.SalePrice)
	s.Equal(3.0, *snapshot.SalePrice)

	bought, err := contract.Purchase(s.ctx, buyer, asset.ID, 3)
	s.Require().NoError(err)
	s.True(bought.Success)
	s.NotEmpty(bought.TxID)

	snapshot, err = contract.GetSnapshot(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Nil(snapshot.SalePrice)

	// ownership is not reassigned by a purchase
	got, err := s.container.Registry.Get(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Equal(models.Owners{{Address: "ALGOOWNER001", Share: 1}}, got.Owners)
}

func (s *ServiceTestSuite) TestSaleLotIgnoresBookListings() {
	s.seed()
	owner := s.connected("ALGOOWNER001")
	buyer := s.connected("ALGOBUYER001")
	contract := s.container.Contract

	book, err := s.container.Listings.ActiveForToken(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Require().Len(book, 1)
	seeded := book[0]

	snapshot, err := contract.GetSnapshot(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Nil(snapshot.SalePrice)

	price := seeded.PricePerUnit + 50
	listed, err := contract.ListForSale(s.ctx, owner, "token-1", price)
	s.Require().NoError(err)
	s.True(listed.Success)

	snapshot, err = contract.GetSnapshot(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Require().NotNil(snapshot.SalePrice)
	s.Equal(price, *snapshot.SalePrice)

	bought, err := contract.Purchase(s.ctx, buyer, "token-1", price)
	s.Require().NoError(err)
	s.True(bought.Success)

	snapshot, err = contract.GetSnapshot(s.ctx, "token-1")
	s.Require().NoError(err)
	s.Nil(snapshot.SalePrice)

	untouched, err := s.container.Listings.Get(s.ctx, seeded.ID)
	s.Require().NoError(err)
	s.Equal(seeded.Amount, untouched.Amount)
	s.Equal(models.ListingStatusActive, untouched.Status)

	// Unlisted again, even though the book ask is below the offer
	result, err := contract.Purchase(s.ctx, buyer, "token-1", price)
	s.True(errors.Is(err, ErrNoMatchingListing))
	s.False(result.Success)
}

func (s *ServiceTestSuite) TestRelistingByAnotherSellerReplacesLot() {
	first := s.connected("ALGOOWNER001")
	second := s.connected("ALGOOWNER002")
	asset := s.mint("Shared", 10, 1, 1, "ALGOOWNER001")

	_, err := s.container.Contract.ListForSale(s.ctx, first, asset.ID, 9)
	s.Require().NoError(err)
	_, err = s.container.Contract.ListForSale(s.ctx, second, asset.ID, 7)
	s.Require().NoError(err)

	active, err := s.container.Listings.ActiveForToken(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal("ALGOOWNER002", active[0].Seller)
	s.Equal(models.ListingKindSale, active[0].Kind)
}

func (s *ServiceTestSuite) TestSnapshotMetadataIsJSON() {
	asset, err := s.container.Registry.Create(s.ctx, &models.TokenizationRequest{
		Name:        "Mark",
		Description: "A registered trademark",
		IPType:      models.IPTypeTrademark,
		TotalSupply: 1,
		Price:       1,
		Metadata:    models.JSONB{"jurisdiction": "EU"},
	}, "ALGOOWNER001")
	s.Require().NoError(err)

	snapshot, err := s.container.Contract.GetSnapshot(s.ctx, asset.ID)
	s.Require().NoError(err)

	var decoded map[string]interface{}
	s.Require().NoError(json.Unmarshal([]byte(snapshot.Metadata), &decoded))
	s.Equal("EU", decoded["jurisdiction"])
	s.Contains(decoded, "contractTxId")

	_, err = s.container.Contract.GetSnapshot(s.ctx, "token-404")
	s.True(errors.Is(err, ErrAssetNotFound))
}

func (s *ServiceTestSuite) TestRelistingCancelsPreviousLot() {
	owner := s.connected("ALGOOWNER001")
	asset := s.mint("Relisted", 10, 1, 1, "ALGOOWNER001")

	_, err := s.container.Contract.ListForSale(s.ctx, owner, asset.ID, 5)
	s.Require().NoError(err)
	_, err = s.container.Contract.ListForSale(s.ctx, owner, asset.ID, 4)
	s.Require().NoError(err)

	listings, err := s.store.Listings.ListByToken(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Require().Len(listings, 2)
	s.Equal(models.ListingStatusCancelled, listings[0].Status)
	s.Equal(models.ListingStatusActive, listings[1].Status)
	s.Equal(4.0, listings[1].PricePerUnit)
	s.Equal(int64(1), listings[1].Amount)
}

func (s *ServiceTestSuite) TestPayRoyaltyUsesFlatRate() {
	payer := s.connected("ALGOPAYER001")
	asset := s.mint("Royalty", 10, 20, 1, "ALGOOWNER001")

	result, err := s.container.Contract.PayRoyalty(s.ctx, payer, asset.ID, 100)
	s.Require().NoError(err)
	s.True(result.Success)
	s.Require().NotNil(result.RoyaltyPaid)
	s.Equal(5.0, *result.RoyaltyPaid)

	result, err = s.container.Contract.PayRoyalty(s.ctx, payer, asset.ID, 0)
	s.True(errors.Is(err, ErrInvalidAmount))
	s.False(result.Success)
	s.Equal(ReasonInvalidInput, result.Reason)
}

func (s *ServiceTestSuite) TestMutationsRequireWallet() {
	asset := s.mint("Gated", 10, 1, 1, "ALGOOWNER001")
	session := s.disconnected()
	contract := s.container.Contract

	calls := map[string]func() (*models.TxResult, error){
		"list":     func() (*models.TxResult, error) { return contract.ListForSale(s.ctx, session, asset.ID, 1) },
		"purchase": func() (*models.TxResult, error) { return contract.Purchase(s.ctx, session, asset.ID, 1) },
		"royalty":  func() (*models.TxResult, error) { return contract.PayRoyalty(s.ctx, session, asset.ID, 1) },
		"metadata": func() (*models.TxResult, error) { return contract.UpdateMetadata(s.ctx, session, asset.ID, "Qm123") },
	}
	for name, call := range calls {
		result, err := call()
		s.True(errors.Is(err, ErrWalletNotConnected), name)
		s.Require().NotNil(result, name)
		s.False(result.Success, name)
		s.Equal(ReasonWalletNotConnected, result.Reason, name)
	}

	listings, err := s.store.Listings.ListByToken(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Empty(listings)

	_, err = contract.ListForSale(s.ctx, nil, asset.ID, 1)
	s.True(errors.Is(err, ErrWalletNotConnected))
}

func (s *ServiceTestSuite) TestUpdateMetadataLeavesRegistryUntouched() {
	owner := s.connected("ALGOOWNER001")
	asset := s.mint("Hashing", 10, 1, 1, "ALGOOWNER001")

	result, err := s.container.Contract.UpdateMetadata(s.ctx, owner, asset.ID, "QmNewHash")
	s.Require().NoError(err)
	s.True(result.Success)

	got, err := s.container.Registry.Get(s.ctx, asset.ID)
	s.Require().NoError(err)
	s.Equal(asset.Metadata, got.Metadata)

	_, err = s.container.Contract.UpdateMetadata(s.ctx, owner, "token-404", "QmNewHash")
	s.True(errors.Is(err, ErrAssetNotFound))
}

func (s *ServiceTestSuite) TestPurchaseWithoutMatchingListing() {
	buyer := s.connected("ALGOBUYER001")
	asset := s.mint("Unlisted", 10, 1, 1, "ALGOOWNER001")

	result, err := s.container.Contract.Purchase(s.ctx, buyer, asset.ID, 10)
	s.True(errors.Is(err, ErrNoMatchingListing))
	s.Equal(ReasonPriceAboveOffer, result.Reason)
}

func (s *ServiceTestSuite) TestCollaboratorFaultBecomesContractFailure() {
	cfg := config.LatencyConfig{}
	registry := NewRegistryService(failingAssets{s.store.Assets}, utils.NoDelay{}, cfg, fixedClock)
	listings := NewListingService(s.store.Listings, s.store.Assets, utils.NoDelay{}, cfg, fixedClock)
	contract := NewContractService(registry, listings, utils.NoDelay{}, cfg)

	result, err := contract.PayRoyalty(s.ctx, s.connected("ALGOPAYER001"), "token-1", 10)
	s.True(errors.Is(err, ErrContractCallFailed))
	s.False(result.Success)
	s.Equal(ReasonFailed, result.Reason)
}
