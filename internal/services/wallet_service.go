// internal/services/wallet_service.go
package services

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

var (
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrUnknownProvider    = errors.New("unknown wallet provider")
	ErrInvalidAddress     = errors.New("invalid wallet address")
	ErrInvalidSession     = errors.New("invalid wallet session")
)

var providerNames = map[string]string{
	"pera":  "Pera Wallet",
	"defly": "Defly Wallet",
}

// WalletConnector is the wallet-connection capability the session wraps. An
// empty provider id clears the active provider.
type WalletConnector interface {
	ActiveAddress() string
	SetActiveProvider(id string) error
}

// WalletSession exposes a uniform connected/address view over a connector.
// Connection state is always read from the connector; only loading is held.
type WalletSession struct {
	connector WalletConnector
	providers []models.WalletProvider
	loading   atomic.Bool
}

func NewWalletSession(connector WalletConnector, providers []models.WalletProvider) *WalletSession {
	return &WalletSession{connector: connector, providers: providers}
}

func (w *WalletSession) State() models.WalletState {
	state := models.WalletState{Loading: w.loading.Load()}
	if address := w.connector.ActiveAddress(); address != "" {
		state.Connected = true
		state.Address = &address
	}
	return state
}

// Connect does not connect anything. Provider selection happens in the
// client's dialog, so this only asks for a provider to be chosen.
func (w *WalletSession) Connect() (models.Notice, []models.WalletProvider) {
	return models.Notice{Level: models.NoticeInfo, Key: i18n.KeyWalletSelectProvider}, w.providers
}

// Disconnect clears the active provider. Connector failures are logged and
// reported as an error notice, never returned.
func (w *WalletSession) Disconnect() models.Notice {
	w.loading.Store(true)
	defer w.loading.Store(false)

	if err := w.connector.SetActiveProvider(""); err != nil {
		logrus.WithError(err).Error("Failed to disconnect wallet")
		return models.Notice{Level: models.NoticeError, Key: i18n.KeyWalletDisconnectFailed}
	}
	return models.Notice{Level: models.NoticeSuccess, Key: i18n.KeyWalletDisconnected}
}

// RequireAddress returns the active address or ErrWalletNotConnected.
func (w *WalletSession) RequireAddress() (string, error) {
	if w == nil {
		return "", ErrWalletNotConnected
	}
	address := w.connector.ActiveAddress()
	if address == "" {
		return "", ErrWalletNotConnected
	}
	return address, nil
}

// MemoryConnector is an in-process connector. Accounts maps a provider id to
// the account that provider reports once it is selected.
type MemoryConnector struct {
	mu       sync.RWMutex
	accounts map[string]string
	active   string
}

func NewMemoryConnector(accounts map[string]string) *MemoryConnector {
	copied := make(map[string]string, len(accounts))
	for k, v := range accounts {
		copied[k] = v
	}
	return &MemoryConnector{accounts: copied}
}

func (m *MemoryConnector) ActiveAddress() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return ""
	}
	return m.accounts[m.active]
}

func (m *MemoryConnector) SetActiveProvider(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		m.active = ""
		return nil
	}
	if _, ok := m.accounts[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, id)
	}
	m.active = id
	return nil
}

// SessionConnector is the connector behind a bearer session token. Clearing
// the provider revokes the token.
type SessionConnector struct {
	claims      *utils.WalletClaims
	revocations *RevocationList
}

func (s *SessionConnector) ActiveAddress() string {
	if s.claims == nil || s.revocations.Revoked(s.claims.ID) {
		return ""
	}
	return s.claims.Address
}

func (s *SessionConnector) SetActiveProvider(id string) error {
	if id != "" {
		return fmt.Errorf("provider %s must be activated through the provider endpoint", id)
	}
	if s.claims == nil {
		return nil
	}
	expires := time.Time{}
	if s.claims.ExpiresAt != nil {
		expires = s.claims.ExpiresAt.Time
	}
	s.revocations.Revoke(s.claims.ID, expires)
	return nil
}

// RevocationList remembers revoked token ids until the tokens expire.
type RevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     utils.Clock
}

func NewRevocationList(now utils.Clock) *RevocationList {
	return &RevocationList{revoked: make(map[string]time.Time), now: now}
}

func (r *RevocationList) Revoke(id string, expires time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for jti, exp := range r.revoked {
		if !exp.IsZero() && now.After(exp) {
			delete(r.revoked, jti)
		}
	}
	r.revoked[id] = expires
}

func (r *RevocationList) Revoked(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[id]
	return ok
}

// WalletService issues wallet sessions for the HTTP layer.
type WalletService struct {
	signer      *utils.SessionSigner
	revocations *RevocationList
	providers   []models.WalletProvider
}

type ActivateResult struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	State     models.WalletState `json:"state"`
}

func NewWalletService(signer *utils.SessionSigner, revocations *RevocationList, providerIDs []string) *WalletService {
	providers := make([]models.WalletProvider, 0, len(providerIDs))
	for _, id := range providerIDs {
		name, ok := providerNames[id]
		if !ok {
			name = id
		}
		providers = append(providers, models.WalletProvider{ID: id, Name: name})
	}
	return &WalletService{signer: signer, revocations: revocations, providers: providers}
}

func (s *WalletService) Providers() []models.WalletProvider {
	return append([]models.WalletProvider(nil), s.providers...)
}

// Activate records the external connection event: provider reports address
// as its active account. The returned token identifies the session.
func (s *WalletService) Activate(provider, address string) (*ActivateResult, error) {
	if !s.knows(provider) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	if !utils.IsWalletAddress(address) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAddress, address)
	}

	token, claims, err := s.signer.Issue(provider, address)
	if err != nil {
		return nil, fmt.Errorf("failed to issue wallet session: %w", err)
	}

	session := s.SessionFor(claims)
	return &ActivateResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		State:     session.State(),
	}, nil
}

// SessionFromToken validates a bearer token. An empty token yields a
// disconnected session and no error.
func (s *WalletService) SessionFromToken(token string) (*WalletSession, error) {
	if token == "" {
		return s.SessionFor(nil), nil
	}
	claims, err := s.signer.Validate(token)
	if err != nil {
		return s.SessionFor(nil), fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}
	return s.SessionFor(claims), nil
}

func (s *WalletService) SessionFor(claims *utils.WalletClaims) *WalletSession {
	return NewWalletSession(&SessionConnector{claims: claims, revocations: s.revocations}, s.providers)
}

func (s *WalletService) knows(provider string) bool {
	for _, p := range s.providers {
		if p.ID == provider {
			return true
		}
	}
	return false
}
