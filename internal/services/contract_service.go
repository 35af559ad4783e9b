// internal/services/contract_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/metrics"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

var ErrContractCallFailed = errors.New("contract call failed")

// FlatRoyaltyRate is applied to every royalty payment. It does not consult
// the asset's own royaltyPercentage.
var FlatRoyaltyRate = decimal.RequireFromString("0.05")

// Failure reasons reported in TxResult.Reason.
const (
	ReasonWalletNotConnected = "wallet_not_connected"
	ReasonNotFound           = "not_found"
	ReasonInsufficientAmount = "insufficient_amount"
	ReasonListingChanged     = "listing_changed"
	ReasonListingInactive    = "listing_inactive"
	ReasonPriceAboveOffer    = "price_above_offer"
	ReasonInvalidInput       = "invalid_input"
	ReasonFailed             = "failed"
)

// ReasonFor maps an error to its failure reason. A nil error maps to "ok".
func ReasonFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrWalletNotConnected), errors.Is(err, ErrInvalidSession):
		return ReasonWalletNotConnected
	case errors.Is(err, ErrAssetNotFound), errors.Is(err, ErrListingNotFound):
		return ReasonNotFound
	case errors.Is(err, ErrInsufficientAmount):
		return ReasonInsufficientAmount
	case errors.Is(err, ErrListingChanged):
		return ReasonListingChanged
	case errors.Is(err, ErrListingInactive):
		return ReasonListingInactive
	case errors.Is(err, ErrNoMatchingListing):
		return ReasonPriceAboveOffer
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidPrice),
		errors.Is(err, ErrInvalidAsset), errors.Is(err, ErrNotSeller):
		return ReasonInvalidInput
	default:
		return ReasonFailed
	}
}

// isExpected reports whether err is a known business outcome rather than a
// collaborator fault.
func isExpected(err error) bool {
	return ReasonFor(err) != ReasonFailed ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ContractService presents the per-asset "smart contract" over the registry
// and listing book. It keeps no state of its own: an asset is Listed while it
// has an active sale lot, a one-unit listing of kind sale. Book listings on the
// same token never affect that state.
type ContractService struct {
	registry *RegistryService
	listings *ListingService
	delay    utils.Delayer
	latency  config.LatencyConfig
}

func NewContractService(registry *RegistryService, listings *ListingService, delay utils.Delayer, latency config.LatencyConfig) *ContractService {
	return &ContractService{
		registry: registry,
		listings: listings,
		delay:    delay,
		latency:  latency,
	}
}

func (s *ContractService) GetSnapshot(ctx context.Context, tokenID string) (*models.ContractSnapshot, error) {
	asset, err := s.registry.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	metadata := asset.Metadata
	if metadata == nil {
		metadata = models.JSONB{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata of %s: %w", tokenID, err)
	}

	salePrice, err := s.listings.LowestAsk(ctx, tokenID, models.ListingKindSale)
	if err != nil {
		return nil, err
	}

	return &models.ContractSnapshot{
		Metadata:          string(encoded),
		RoyaltyPercentage: asset.RoyaltyPercentage,
		Owner:             asset.Creator,
		SalePrice:         salePrice,
	}, nil
}

// ListForSale replaces the token's sale lot with a new one at price.
func (s *ContractService) ListForSale(ctx context.Context, session *WalletSession, tokenID string, price float64) (*models.TxResult, error) {
	return s.call("list", func() (*models.TxResult, error) {
		seller, err := session.RequireAddress()
		if err != nil {
			return nil, err
		}
		if price <= 0 {
			return nil, ErrInvalidPrice
		}
		if _, err := s.registry.lookup(ctx, tokenID); err != nil {
			return nil, err
		}

		if _, err := s.listings.CancelActive(ctx, tokenID, models.ListingKindSale); err != nil {
			return nil, err
		}
		listing, err := s.listings.Open(ctx, OpenListingRequest{
			TokenID:      tokenID,
			Seller:       seller,
			Amount:       1,
			PricePerUnit: price,
			Kind:         models.ListingKindSale,
		})
		if err != nil {
			return nil, err
		}

		return &models.TxResult{
			Success: true,
			TxID:    utils.GenerateTxID("list", tokenID, listing.ID, formatAmount(price)),
		}, nil
	})
}

// Purchase buys the token's sale lot if it is priced at or below price, which
// returns the asset to Unlisted.
func (s *ContractService) Purchase(ctx context.Context, session *WalletSession, tokenID string, price float64) (*models.TxResult, error) {
	return s.call("purchase", func() (*models.TxResult, error) {
		buyer, err := session.RequireAddress()
		if err != nil {
			return nil, err
		}
		if price <= 0 {
			return nil, ErrInvalidPrice
		}
		if _, err := s.registry.lookup(ctx, tokenID); err != nil {
			return nil, err
		}

		listing, err := s.listings.BuyFraction(ctx, tokenID, models.ListingKindSale, 1, price, buyer)
		if err != nil {
			return nil, err
		}

		return &models.TxResult{
			Success: true,
			TxID:    utils.GenerateTxID("purchase", tokenID, listing.ID, buyer),
		}, nil
	})
}

// PayRoyalty simulates a royalty transfer of FlatRoyaltyRate × amount. No
// state changes.
func (s *ContractService) PayRoyalty(ctx context.Context, session *WalletSession, tokenID string, amount float64) (*models.TxResult, error) {
	return s.call("royalty", func() (*models.TxResult, error) {
		payer, err := session.RequireAddress()
		if err != nil {
			return nil, err
		}
		if amount <= 0 {
			return nil, ErrInvalidAmount
		}
		if _, err := s.registry.lookup(ctx, tokenID); err != nil {
			return nil, err
		}

		if err := s.delay.Wait(ctx, s.latency.Royalty); err != nil {
			return nil, err
		}

		paid := decimal.NewFromFloat(amount).Mul(FlatRoyaltyRate)
		royalty := paid.InexactFloat64()
		metrics.RoyaltyPaid.Add(royalty)

		return &models.TxResult{
			Success:     true,
			TxID:        utils.GenerateTxID("royalty", tokenID, payer, paid.String()),
			RoyaltyPaid: &royalty,
		}, nil
	})
}

// UpdateMetadata acknowledges a metadata hash update. The registry is not
// modified.
func (s *ContractService) UpdateMetadata(ctx context.Context, session *WalletSession, tokenID, newHash string) (*models.TxResult, error) {
	return s.call("metadata", func() (*models.TxResult, error) {
		owner, err := session.RequireAddress()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(newHash) == "" {
			return nil, fmt.Errorf("%w: metadata hash is empty", ErrInvalidAsset)
		}
		if _, err := s.registry.lookup(ctx, tokenID); err != nil {
			return nil, err
		}

		return &models.TxResult{
			Success: true,
			TxID:    utils.GenerateTxID("metadata", tokenID, owner, newHash),
		}, nil
	})
}

// call runs op and converts its error into a failed TxResult. Unexpected
// faults are logged and replaced by ErrContractCallFailed.
func (s *ContractService) call(operation string, op func() (*models.TxResult, error)) (*models.TxResult, error) {
	result, err := op()
	metrics.ObserveContractCall(operation, err)
	if err == nil {
		return result, nil
	}

	if !isExpected(err) {
		logrus.WithError(err).WithField("operation", operation).Error("Contract call failed")
		err = fmt.Errorf("%w: %s", ErrContractCallFailed, operation)
	}
	return &models.TxResult{Success: false, Reason: ReasonFor(err)}, err
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
