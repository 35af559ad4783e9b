// internal/handlers/asset.go
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

type AssetHandler struct {
	registry *services.RegistryService
	storage  *services.StorageService
}

func NewAssetHandler(registry *services.RegistryService, storage *services.StorageService) *AssetHandler {
	return &AssetHandler{
		registry: registry,
		storage:  storage,
	}
}

// GET /assets
func (h *AssetHandler) GetAssets(c *gin.Context) {
	params := services.AssetSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if ipType := c.Query("ip_type"); ipType != "" && ipType != "all" {
		params.IPType = models.IPType(ipType)
		if !params.IPType.Valid() {
			lang := utils.GetLangFromContext(c)
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "ip_type"), nil)
			return
		}
	}

	result, err := h.registry.Search(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	// "showing X of Y": pagination total counts matches, meta.total the registry
	page := utils.CreatePaginationResult(result.Assets, result.Matched, result.Params.PaginationParams)
	utils.PaginatedResponse(c, page, gin.H{"total_assets": result.Total})
}

// GET /assets/:id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	asset, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, asset)
}

// POST /assets
func (h *AssetHandler) CreateAsset(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	creator, err := middleware.GetWalletSession(c).RequireAddress()
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req models.TokenizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	asset, err := h.registry.Create(c.Request.Context(), &req, creator)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.NoticeResponse(c, http.StatusCreated, models.Notice{Level: models.NoticeSuccess, Key: i18n.KeyAssetCreated}, asset)
}

// POST /assets/:id/image
func (h *AssetHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx := c.Request.Context()
	id := c.Param("id")

	if _, err := h.registry.Get(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "image"), nil)
		return
	}

	file, err := header.Open()
	if err != nil {
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed))
		return
	}
	defer file.Close()

	upload, err := h.storage.UploadImage(ctx, id, header.Filename, header.Size, file)
	if err != nil {
		respondError(c, err)
		return
	}

	asset, err := h.registry.AttachImage(ctx, id, upload.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.NoticeResponse(c, http.StatusOK, models.Notice{Level: models.NoticeSuccess, Key: i18n.KeyAssetImageUpdated}, gin.H{
		"asset":  asset,
		"upload": upload,
	})
}

var ipTypeNames = map[models.IPType]string{
	models.IPTypePatent:      "Patent",
	models.IPTypeCopyright:   "Copyright",
	models.IPTypeTrademark:   "Trademark",
	models.IPTypeTradeSecret: "Trade Secret",
}

// GET /ip-types
func GetIPTypes(c *gin.Context) {
	types := make([]gin.H, 0, len(models.IPTypes))
	for _, kind := range models.IPTypes {
		types = append(types, gin.H{"id": kind, "name": ipTypeNames[kind]})
	}

	utils.SuccessResponse(c, types)
}
