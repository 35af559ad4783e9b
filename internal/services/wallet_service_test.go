package services

import (
	"errors"
	"time"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

func (s *ServiceTestSuite) TestWalletStateFollowsConnector() {
	connector := NewMemoryConnector(map[string]string{"pera": "ALGOWALLET01"})
	session := NewWalletSession(connector, s.container.Wallet.Providers())

	state := session.State()
	s.False(state.Connected)
	s.Nil(state.Address)
	s.False(state.Loading)
	s.Nil(state.Error)
	_, err := session.RequireAddress()
	s.True(errors.Is(err, ErrWalletNotConnected))

	// external connection event
	s.Require().NoError(connector.SetActiveProvider("pera"))

	state = session.State()
	s.True(state.Connected)
	s.Require().NotNil(state.Address)
	s.Equal("ALGOWALLET01", *state.Address)

	address, err := session.RequireAddress()
	s.Require().NoError(err)
	s.Equal("ALGOWALLET01", address)

	notice := session.Disconnect()
	s.Equal(models.NoticeSuccess, notice.Level)
	s.Equal(i18n.KeyWalletDisconnected, notice.Key)
	s.False(session.State().Connected)
}

func (s *ServiceTestSuite) TestWalletConnectOnlyAsksForProvider() {
	session := s.disconnected()

	notice, providers := session.Connect()
	s.Equal(models.NoticeInfo, notice.Level)
	s.Equal(i18n.KeyWalletSelectProvider, notice.Key)
	s.Equal([]models.WalletProvider{
		{ID: "pera", Name: "Pera Wallet"},
		{ID: "defly", Name: "Defly Wallet"},
	}, providers)
	s.False(session.State().Connected)
}

func (s *ServiceTestSuite) TestWalletDisconnectFailureIsReported() {
	session := NewWalletSession(failingConnector{address: "ALGOWALLET01"}, nil)

	notice := session.Disconnect()
	s.Equal(models.NoticeError, notice.Level)
	s.Equal(i18n.KeyWalletDisconnectFailed, notice.Key)
	s.False(session.State().Loading)
}

func (s *ServiceTestSuite) TestMemoryConnectorUnknownProvider() {
	connector := NewMemoryConnector(map[string]string{"pera": "ALGOWALLET01"})
	s.True(errors.Is(connector.SetActiveProvider("metamask"), ErrUnknownProvider))
	s.Empty(connector.ActiveAddress())
}

func (s *ServiceTestSuite) TestWalletServiceSessionLifecycle() {
	wallet := s.container.Wallet

	result, err := wallet.Activate("pera", "ALGOWALLET01")
	s.Require().NoError(err)
	s.NotEmpty(result.Token)
	s.True(result.State.Connected)
	s.True(result.ExpiresAt.Equal(testNow.Add(time.Hour)))

	session, err := wallet.SessionFromToken(result.Token)
	s.Require().NoError(err)
	address, err := session.RequireAddress()
	s.Require().NoError(err)
	s.Equal("ALGOWALLET01", address)

	notice := session.Disconnect()
	s.Equal(models.NoticeSuccess, notice.Level)

	// the revoked token no longer yields an address
	again, err := wallet.SessionFromToken(result.Token)
	s.Require().NoError(err)
	s.False(again.State().Connected)
}

func (s *ServiceTestSuite) TestWalletServiceRejectsBadInput() {
	wallet := s.container.Wallet

	_, err := wallet.Activate("metamask", "ALGOWALLET01")
	s.True(errors.Is(err, ErrUnknownProvider))

	_, err = wallet.Activate("pera", "0xdeadbeef")
	s.True(errors.Is(err, ErrInvalidAddress))

	session, err := wallet.SessionFromToken("not-a-jwt")
	s.True(errors.Is(err, ErrInvalidSession))
	s.False(session.State().Connected)

	empty, err := wallet.SessionFromToken("")
	s.Require().NoError(err)
	s.False(empty.State().Connected)
}

func (s *ServiceTestSuite) TestRevocationListPrunesExpired() {
	now := testNow
	list := NewRevocationList(func() time.Time { return now })

	list.Revoke("old", testNow.Add(time.Minute))
	s.True(list.Revoked("old"))

	now = testNow.Add(time.Hour)
	list.Revoke("new", now.Add(time.Minute))
	s.False(list.Revoked("old"))
	s.True(list.Revoked("new"))
}

func (s *ServiceTestSuite) TestSessionTokenFromOtherSecretIsRejected() {
	other := utils.NewSessionSigner("another-secret", 1, fixedClock)
	token, _, err := other.Issue("pera", "ALGOWALLET01")
	s.Require().NoError(err)

	_, err = s.container.Wallet.SessionFromToken(token)
	s.True(errors.Is(err, ErrInvalidSession))
}
