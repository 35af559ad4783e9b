// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/ipnexus-backend/internal/i18n"
	"github.com/javajoker/ipnexus-backend/internal/models"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyWalletRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

// ConflictResponse reports a request that lost to the current state of a
// record. code names the conflict, e.g. "LISTING_CHANGED".
func ConflictResponse(c *gin.Context, code, message string, details interface{}) {
	if code == "" {
		code = "CONFLICT"
	}
	ErrorResponse(c, http.StatusConflict, code, message, details)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

// NoticeResponse renders a user-facing notice in the caller's language.
func NoticeResponse(c *gin.Context, status int, notice models.Notice, data interface{}) {
	notice.Message = i18n.T(GetLangFromContext(c), notice.Key)
	c.JSON(status, APIResponse{
		Success: notice.Level != models.NoticeError,
		Data:    data,
		Meta:    gin.H{"notice": notice},
	})
}

// TxResponse reports a contract or trade result. Failures still answer with
// the result body so the UI can branch on the reason code.
func TxResponse(c *gin.Context, status int, result *models.TxResult, noticeKey string, args ...interface{}) {
	lang := GetLangFromContext(c)
	level := models.NoticeSuccess
	if !result.Success {
		level = models.NoticeError
	}
	c.JSON(status, APIResponse{
		Success: result.Success,
		Data:    result,
		Meta: gin.H{"notice": models.Notice{
			Level:   level,
			Key:     noticeKey,
			Message: i18n.T(lang, noticeKey, args...),
		}},
	})
}

func PaginatedResponse(c *gin.Context, result PaginationResult, extra gin.H) {
	SetPaginationHeaders(c, result)
	meta := gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	}
	for k, v := range extra {
		meta[k] = v
	}
	SuccessResponseWithMeta(c, result.Data, meta)
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}
