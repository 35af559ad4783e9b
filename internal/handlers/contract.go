// internal/handlers/contract.go
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

type ContractHandler struct {
	contract *services.ContractService
}

func NewContractHandler(contract *services.ContractService) *ContractHandler {
	return &ContractHandler{contract: contract}
}

type PriceRequest struct {
	Price float64 `json:"price"`
}

type RoyaltyRequest struct {
	Amount float64 `json:"amount"`
}

type MetadataRequest struct {
	Hash string `json:"hash"`
}

// GET /assets/:id/contract
func (h *ContractHandler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.contract.GetSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, snapshot)
}

// POST /assets/:id/contract/list
func (h *ContractHandler) ListForSale(c *gin.Context) {
	var req PriceRequest
	if !bindTxRequest(c, &req) {
		return
	}

	result, err := h.contract.ListForSale(c.Request.Context(), middleware.GetWalletSession(c), c.Param("id"), req.Price)
	respondTx(c, result, err, i18n.KeyContractListed)
}

// POST /assets/:id/contract/purchase
func (h *ContractHandler) Purchase(c *gin.Context) {
	var req PriceRequest
	if !bindTxRequest(c, &req) {
		return
	}

	result, err := h.contract.Purchase(c.Request.Context(), middleware.GetWalletSession(c), c.Param("id"), req.Price)
	respondTx(c, result, err, i18n.KeyContractPurchased)
}

// POST /assets/:id/contract/royalty
func (h *ContractHandler) PayRoyalty(c *gin.Context) {
	var req RoyaltyRequest
	if !bindTxRequest(c, &req) {
		return
	}

	result, err := h.contract.PayRoyalty(c.Request.Context(), middleware.GetWalletSession(c), c.Param("id"), req.Amount)
	respondTx(c, result, err, i18n.KeyContractRoyaltyPaid)
}

// POST /assets/:id/contract/metadata
func (h *ContractHandler) UpdateMetadata(c *gin.Context) {
	var req MetadataRequest
	if !bindTxRequest(c, &req) {
		return
	}

	result, err := h.contract.UpdateMetadata(c.Request.Context(), middleware.GetWalletSession(c), c.Param("id"), req.Hash)
	respondTx(c, result, err, i18n.KeyContractMetadataUpdated)
}

// bindTxRequest decodes a contract call body. A malformed body is reported
// as a failed call with reason invalid_input.
func bindTxRequest(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		result := &models.TxResult{Success: false, Reason: services.ReasonInvalidInput}
		utils.TxResponse(c, http.StatusBadRequest, result, i18n.KeyValidationInvalid, "input")
		return false
	}
	return true
}

func respondTx(c *gin.Context, result *models.TxResult, err error, successKey string) {
	if err == nil {
		utils.TxResponse(c, http.StatusOK, result, successKey)
		return
	}

	status := statusFor(err)
	key := noticeKeyFor(result.Reason)
	if key == i18n.KeyValidationInvalid {
		utils.TxResponse(c, status, result, key, "input")
		return
	}
	utils.TxResponse(c, status, result, key)
}
