// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/javajoker/ipnexus-backend/internal/handlers"
	"github.com/javajoker/ipnexus-backend/internal/middleware"
	"github.com/javajoker/ipnexus-backend/internal/services"
	"github.com/javajoker/ipnexus-backend/internal/utils"
)

const version = "1.0.0"

// Initialize builds the HTTP API over the container's services. Background
// work started here, such as limiter cleanup, stops when ctx is cancelled.
func Initialize(ctx context.Context, container *services.Container) *gin.Engine {
	cfg := container.Config

	// Initialize handlers
	assetHandler := handlers.NewAssetHandler(container.Registry, container.Storage)
	listingHandler := handlers.NewListingHandler(container.Listings)
	contractHandler := handlers.NewContractHandler(container.Contract)
	walletHandler := handlers.NewWalletHandler(container.Wallet, container.Registry)

	generalLimiter := middleware.NewRateLimiterFromConfig(ctx, cfg.RateLimit)
	walletLimiter := middleware.NewRateLimiter(ctx, rate.Every(time.Minute/10), 10)
	uploadLimiter := middleware.NewRateLimiter(ctx, rate.Every(time.Minute/10), 10)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
	}
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend))
	r.Use(middleware.I18nMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
			"store":   cfg.Store.Driver,
		})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(generalLimiter.Middleware())
	v1.Use(middleware.WalletSession(container.Wallet))
	{
		// Asset registry and contract facade
		assets := v1.Group("/assets")
		{
			assets.GET("", assetHandler.GetAssets)
			assets.GET("/:id", assetHandler.GetAsset)
			assets.GET("/:id/contract", contractHandler.GetSnapshot)

			// The facade reports a missing wallet itself, as a failed tx.
			assets.POST("/:id/contract/list", contractHandler.ListForSale)
			assets.POST("/:id/contract/purchase", contractHandler.Purchase)
			assets.POST("/:id/contract/royalty", contractHandler.PayRoyalty)
			assets.POST("/:id/contract/metadata", contractHandler.UpdateMetadata)

			protected := assets.Group("")
			protected.Use(middleware.WalletRequired())
			{
				protected.POST("", assetHandler.CreateAsset)
				protected.POST("/:id/image", uploadLimiter.Middleware(), assetHandler.UploadImage)
			}
		}

		// Listing book
		listings := v1.Group("/listings")
		{
			listings.GET("", listingHandler.GetListings)
			listings.GET("/:id", listingHandler.GetListing)

			protected := listings.Group("")
			protected.Use(middleware.WalletRequired())
			{
				protected.POST("/:id/purchase", listingHandler.PurchaseListing)
				protected.POST("/:id/cancel", listingHandler.CancelListing)
			}
		}

		// Wallet session
		wallet := v1.Group("/wallet")
		{
			wallet.GET("", walletHandler.GetState)
			wallet.POST("/connect", walletHandler.Connect)
			wallet.POST("/providers/:provider/activate", walletLimiter.Middleware(), walletHandler.Activate)
			wallet.POST("/disconnect", walletHandler.Disconnect)
		}

		v1.GET("/portfolio", middleware.WalletRequired(), walletHandler.GetPortfolio)
		v1.GET("/ip-types", handlers.GetIPTypes)
		v1.GET("/providers", func(c *gin.Context) {
			utils.SuccessResponse(c, container.Wallet.Providers())
		})
	}

	// Uploaded images when no object storage is configured
	if cfg.AWS.AccessKeyID == "" && cfg.Storage.LocalDir != "" {
		r.Static("/uploads", cfg.Storage.LocalDir)
	}

	return r
}
