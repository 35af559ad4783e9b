// internal/services/container.go
package services

import (
	"github.com/javajoker/ipnexus-backend/internal/config"
	"github.com/javajoker/ipnexus-backend/internal/repository"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

// Container wires the services of one process. Tests build their own
// container over a fresh store instead of sharing global state.
type Container struct {
	Config   *config.Config
	Store    *repository.Store
	Registry *RegistryService
	Listings *ListingService
	Contract *ContractService
	Wallet   *WalletService
	Storage  *StorageService
}

type Option func(*options)

type options struct {
	delay   utils.Delayer
	clock   utils.Clock
	storage *StorageService
}

// WithDelayer replaces the simulated latency source.
func WithDelayer(d utils.Delayer) Option {
	return func(o *options) { o.delay = d }
}

func WithClock(c utils.Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithStorage(s *StorageService) Option {
	return func(o *options) { o.storage = s }
}

func NewContainer(cfg *config.Config, store *repository.Store, opts ...Option) (*Container, error) {
	o := options{clock: utils.SystemClock}
	if cfg.Latency.Enabled {
		o.delay = utils.TimerDelay{}
	} else {
		o.delay = utils.NoDelay{}
	}
	for _, opt := range opts {
		opt(&o)
	}

	storage := o.storage
	if storage == nil {
		var err error
		if storage, err = NewStorageService(cfg); err != nil {
			return nil, err
		}
	}

	registry := NewRegistryService(store.Assets, o.delay, cfg.Latency, o.clock)
	listings := NewListingService(store.Listings, store.Assets, o.delay, cfg.Latency, o.clock)
	signer := utils.NewSessionSigner(cfg.Wallet.SecretKey, cfg.Wallet.SessionTTL, o.clock)

	return &Container{
		Config:   cfg,
		Store:    store,
		Registry: registry,
		Listings: listings,
		Contract: NewContractService(registry, listings, o.delay, cfg.Latency),
		Wallet:   NewWalletService(signer, NewRevocationList(o.clock), cfg.Wallet.Providers),
		Storage:  storage,
	}, nil
}
