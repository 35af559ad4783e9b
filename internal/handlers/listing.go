// internal/handlers/listing.go
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

type ListingHandler struct {
	listings *services.ListingService
}

func NewListingHandler(listings *services.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

type PurchaseListingRequest struct {
	Amount int64 `json:"amount" validate:"min=1"`
}

// GET /listings
func (h *ListingHandler) GetListings(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		listings []models.Listing
		err      error
	)
	if tokenID := c.Query("token_id"); tokenID != "" {
		listings, err = h.listings.ActiveForToken(ctx, tokenID)
	} else {
		listings, err = h.listings.List(ctx)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listings)
}

// GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.listings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// POST /listings/:id/purchase
func (h *ListingHandler) PurchaseListing(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	buyer, err := middleware.GetWalletSession(c).RequireAddress()
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req PurchaseListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	listing, err := h.listings.Purchase(c.Request.Context(), c.Param("id"), req.Amount, buyer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.APIResponse{
		Success: true,
		Data:    listing,
		Meta: gin.H{"notice": models.Notice{
			Level:   models.NoticeSuccess,
			Key:     i18n.KeyListingPurchased,
			Message: i18n.T(lang, i18n.KeyListingPurchased, req.Amount),
		}},
	})
}

// POST /listings/:id/cancel
func (h *ListingHandler) CancelListing(c *gin.Context) {
	seller, err := middleware.GetWalletSession(c).RequireAddress()
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	listing, err := h.listings.Cancel(c.Request.Context(), c.Param("id"), seller)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.NoticeResponse(c, http.StatusOK, models.Notice{Level: models.NoticeSuccess, Key: i18n.KeyListingCancelled}, listing)
}
