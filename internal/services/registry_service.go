// internal/services/registry_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/metrics"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/repository"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

var (
	ErrAssetNotFound = errors.New("IP asset not found")
	ErrInvalidAsset  = errors.New("invalid tokenization request")
)

// Sort orders accepted by Search.
const (
	SortNewest    = "newest"
	SortOldest    = "oldest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
)

type RegistryService struct {
	assets  repository.AssetRepository
	delay   utils.Delayer
	latency config.LatencyConfig
	now     utils.Clock
}

type AssetSearchParams struct {
	utils.PaginationParams
	IPType models.IPType `json:"ipType,omitempty"`
}

type AssetSearchResult struct {
	Assets  []models.IPAsset  `json:"assets"`
	// Total counts every asset, Matched only those passing the filters.
	Total   int64             `json:"total"`
	Matched int64             `json:"matched"`
	Params  AssetSearchParams `json:"-"`
}

func NewRegistryService(assets repository.AssetRepository, delay utils.Delayer, latency config.LatencyConfig, now utils.Clock) *RegistryService {
	return &RegistryService{
		assets:  assets,
		delay:   delay,
		latency: latency,
		now:     now,
	}
}

func (s *RegistryService) List(ctx context.Context) ([]models.IPAsset, error) {
	if err := s.delay.Wait(ctx, s.latency.ListAssets); err != nil {
		return nil, err
	}
	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

func (s *RegistryService) Get(ctx context.Context, id string) (*models.IPAsset, error) {
	if err := s.delay.Wait(ctx, s.latency.GetAsset); err != nil {
		return nil, err
	}
	return s.lookup(ctx, id)
}

// lookup reads an asset without simulated latency, for internal checks.
func (s *RegistryService) lookup(ctx context.Context, id string) (*models.IPAsset, error) {
	asset, err := s.assets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
		}
		return nil, fmt.Errorf("failed to load asset %s: %w", id, err)
	}
	return asset, nil
}

// Create mints a new asset from a tokenization request. An empty creator is
// replaced by a generated mock address.
func (s *RegistryService) Create(ctx context.Context, req *models.TokenizationRequest, creator string) (*models.IPAsset, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}

	if err := s.delay.Wait(ctx, s.latency.Mint); err != nil {
		return nil, err
	}

	if creator == "" {
		creator = utils.GenerateMockAddress()
	}

	metadata := req.Metadata.Clone()
	if metadata == nil {
		metadata = models.JSONB{}
	}
	metadata["contractTxId"] = utils.GenerateTxID("mint", creator, req.Name)

	asset := &models.IPAsset{
		Name:              req.Name,
		Description:       req.Description,
		Creator:           creator,
		TotalSupply:       req.TotalSupply,
		AvailableSupply:   req.TotalSupply,
		Price:             req.Price,
		RoyaltyPercentage: req.RoyaltyPercentage,
		IPType:            req.IPType,
		CreatedAt:         s.now(),
		ImageURL:          req.ImageURL,
		Metadata:          metadata,
		Owners:            models.Owners{{Address: creator, Share: 1}},
	}
	if err := asset.Owners.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAsset, err)
	}

	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	metrics.AssetsMinted.Inc()
	logrus.WithFields(logrus.Fields{
		"token_id": asset.ID,
		"asset_id": *asset.AssetID,
		"creator":  utils.FormatAddress(creator),
	}).Info("IP asset tokenized")

	return asset, nil
}

// Search filters, sorts and paginates the registry for the marketplace view.
func (s *RegistryService) Search(ctx context.Context, params AssetSearchParams) (*AssetSearchResult, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	params.PaginationParams = params.Normalize()
	search := strings.ToLower(strings.TrimSpace(params.Search))

	matched := make([]models.IPAsset, 0, len(all))
	for _, asset := range all {
		if params.IPType != "" && asset.IPType != params.IPType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(asset.Name), search) &&
			!strings.Contains(strings.ToLower(asset.Description), search) {
			continue
		}
		matched = append(matched, asset)
	}

	sortAssets(matched, params.Sort)

	return &AssetSearchResult{
		Assets:  utils.Paginate(matched, params.PaginationParams),
		Total:   int64(len(all)),
		Matched: int64(len(matched)),
		Params:  params,
	}, nil
}

func sortAssets(assets []models.IPAsset, order string) {
	switch order {
	case SortOldest:
		sort.SliceStable(assets, func(i, j int) bool { return assets[i].CreatedAt.Before(assets[j].CreatedAt) })
	case SortPriceLow:
		sort.SliceStable(assets, func(i, j int) bool { return assets[i].Price < assets[j].Price })
	case SortPriceHigh:
		sort.SliceStable(assets, func(i, j int) bool { return assets[i].Price > assets[j].Price })
	default:
		sort.SliceStable(assets, func(i, j int) bool { return assets[i].CreatedAt.After(assets[j].CreatedAt) })
	}
}

// Portfolio collects every asset in which address holds a share.
func (s *RegistryService) Portfolio(ctx context.Context, address string) (*models.Portfolio, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	portfolio := &models.Portfolio{
		Address:      address,
		Holdings:     []models.Holding{},
		CountsByType: make(map[models.IPType]int),
	}
	total := decimal.Zero
	for _, asset := range all {
		share := asset.ShareOf(address)
		if share <= 0 {
			continue
		}
		value := decimal.NewFromFloat(asset.Price).
			Mul(decimal.NewFromFloat(share)).
			Mul(decimal.NewFromInt(asset.TotalSupply)).
			Round(2)
		total = total.Add(value)

		portfolio.Holdings = append(portfolio.Holdings, models.Holding{
			Asset: asset,
			Share: share,
			Value: value.InexactFloat64(),
		})
		portfolio.CountsByType[asset.IPType]++
	}
	portfolio.AssetCount = len(portfolio.Holdings)
	portfolio.TotalValue = total.InexactFloat64()

	return portfolio, nil
}

// AttachImage points an asset at an uploaded image.
func (s *RegistryService) AttachImage(ctx context.Context, id, url string) (*models.IPAsset, error) {
	asset, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	asset.ImageURL = url
	if err := s.assets.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to update asset %s: %w", id, err)
	}
	return asset, nil
}
