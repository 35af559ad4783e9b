// internal/handlers/wallet.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/middleware"
	"github.com/javajoker/ipnexus-backend/internal/models"
	"github.com/javajoker/ipnexus-backend/internal/services"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

type WalletHandler struct {
	wallet   *services.WalletService
	registry *services.RegistryService
}

func NewWalletHandler(wallet *services.WalletService, registry *services.RegistryService) *WalletHandler {
	return &WalletHandler{
		wallet:   wallet,
		registry: registry,
	}
}

type ActivateRequest struct {
	Address string `json:"address" validate:"required,wallet_address"`
}

// GET /wallet
func (h *WalletHandler) GetState(c *gin.Context) {
	utils.SuccessResponse(c, h.session(c).State())
}

// POST /wallet/connect
func (h *WalletHandler) Connect(c *gin.Context) {
	session := h.session(c)
	notice, providers := session.Connect()

	utils.NoticeResponse(c, http.StatusOK, notice, gin.H{
		"state":     session.State(),
		"providers": providers,
	})
}

// POST /wallet/providers/:provider/activate
func (h *WalletHandler) Activate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	result, err := h.wallet.Activate(c.Param("provider"), req.Address)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.NoticeResponse(c, http.StatusOK, models.Notice{Level: models.NoticeSuccess, Key: i18n.KeyWalletConnected}, result)
}

// POST /wallet/disconnect
func (h *WalletHandler) Disconnect(c *gin.Context) {
	session := h.session(c)
	notice := session.Disconnect()

	utils.NoticeResponse(c, http.StatusOK, notice, session.State())
}

// GET /portfolio
func (h *WalletHandler) GetPortfolio(c *gin.Context) {
	address, err := h.session(c).RequireAddress()
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	portfolio, err := h.registry.Portfolio(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, portfolio)
}

// session falls back to a disconnected session when no middleware set one.
func (h *WalletHandler) session(c *gin.Context) *services.WalletSession {
	if session := middleware.GetWalletSession(c); session != nil {
		return session
	}
	return h.wallet.SessionFor(nil)
}
