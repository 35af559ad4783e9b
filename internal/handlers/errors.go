// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/services"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, services.ErrWalletNotConnected), errors.Is(err, services.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrAssetNotFound), errors.Is(err, services.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotSeller):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInsufficientAmount), errors.Is(err, services.ErrListingChanged),
		errors.Is(err, services.ErrListingInactive), errors.Is(err, services.ErrNoMatchingListing):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidAmount), errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidAsset), errors.Is(err, services.ErrUnknownProvider),
		errors.Is(err, services.ErrInvalidAddress), errors.Is(err, services.ErrInvalidFileType):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		return 499
	default:
		return http.StatusInternalServerError
	}
}

// noticeKeyFor picks the translated message for a failure reason.
func noticeKeyFor(reason string) string {
	switch reason {
	case services.ReasonWalletNotConnected:
		return i18n.KeyWalletRequired
	case services.ReasonNotFound:
		return i18n.KeyAssetNotFound
	case services.ReasonInsufficientAmount:
		return i18n.KeyListingInsufficient
	case services.ReasonListingChanged:
		return i18n.KeyListingChanged
	case services.ReasonListingInactive:
		return i18n.KeyListingInactive
	case services.ReasonPriceAboveOffer:
		return i18n.KeyListingPriceTooHigh
	case services.ReasonInvalidInput:
		return i18n.KeyValidationInvalid
	default:
		return i18n.KeyContractFailed
	}
}

// respondError renders err in the standard envelope. The error code is the
// failure reason in upper case so clients can branch on it.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	switch {
	case errors.Is(err, services.ErrAssetNotFound):
		utils.NotFoundResponse(c, "asset")
		return
	case errors.Is(err, services.ErrListingNotFound):
		utils.NotFoundResponse(c, "listing")
		return
	case errors.Is(err, services.ErrWalletNotConnected):
		utils.UnauthorizedResponse(c, "")
		return
	case errors.Is(err, services.ErrInvalidSession):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyWalletInvalidSession))
		return
	case errors.Is(err, services.ErrNotSeller):
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyListingNotSeller))
		return
	case errors.Is(err, services.ErrInvalidFileType):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), nil)
		return
	case errors.Is(err, services.ErrFileTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", i18n.T(lang, i18n.KeyFileTooLarge), nil)
		return
	case errors.Is(err, services.ErrUnknownProvider):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyWalletUnknownProvider, c.Param("provider")), nil)
		return
	case errors.Is(err, services.ErrInvalidAddress):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "address"), nil)
		return
	}

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyError))
		return
	}

	reason := services.ReasonFor(err)
	code, message, details := strings.ToUpper(reason), translateReason(lang, reason), gin.H{"reason": reason}
	if status == http.StatusConflict {
		utils.ConflictResponse(c, code, message, details)
		return
	}
	utils.ErrorResponse(c, status, code, message, details)
}

func translateReason(lang, reason string) string {
	key := noticeKeyFor(reason)
	if key == i18n.KeyValidationInvalid {
		return i18n.T(lang, key, "input")
	}
	return i18n.T(lang, key)
}
