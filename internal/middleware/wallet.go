// internal/middleware/wallet.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/services"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

const walletSessionKey = "wallet_session"

// WalletSession resolves the bearer token into a wallet session. Requests
// without a token get a disconnected session; a malformed or expired token
// is rejected.
func WalletSession(wallet *services.WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := wallet.SessionFromToken(bearerToken(c))
		if err != nil {
			lang := utils.GetLangFromContext(c)
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyWalletInvalidSession))
			c.Abort()
			return
		}

		c.Set(walletSessionKey, session)
		c.Next()
	}
}

// WalletRequired rejects requests whose session has no active address.
func WalletRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetWalletSession(c).RequireAddress(); err != nil {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetWalletSession returns the request's session, or nil when the
// WalletSession middleware did not run.
func GetWalletSession(c *gin.Context) *services.WalletSession {
	if value, exists := c.Get(walletSessionKey); exists {
		if session, ok := value.(*services.WalletSession); ok {
			return session
		}
	}
	return nil
}

func walletAddress(c *gin.Context) (string, bool) {
	address, err := GetWalletSession(c).RequireAddress()
	if err != nil {
		return "", false
	}
	return utils.FormatAddress(address), true
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
