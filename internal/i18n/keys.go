// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Wallet
	KeyWalletRequired         = "wallet.connect_first"
	KeyWalletSelectProvider   = "wallet.select_provider"
	KeyWalletConnected        = "wallet.connected"
	KeyWalletDisconnected     = "wallet.disconnected"
	KeyWalletDisconnectFailed = "wallet.disconnect_failed"
	KeyWalletUnknownProvider  = "wallet.unknown_provider"
	KeyWalletInvalidSession   = "wallet.invalid_session"

	// IP Assets
	KeyAssetCreated      = "asset.created"
	KeyAssetNotFound     = "asset.not_found"
	KeyAssetImageUpdated = "asset.image_updated"

	// Listings
	KeyListingNotFound      = "listing.not_found"
	KeyListingPurchased     = "listing.purchased"
	KeyListingCancelled     = "listing.cancelled"
	KeyListingChanged       = "listing.changed"
	KeyListingInactive      = "listing.inactive"
	KeyListingInsufficient  = "listing.insufficient_amount"
	KeyListingNotSeller     = "listing.not_seller"
	KeyListingPriceTooHigh  = "listing.price_above_offer"
	KeyListingInvalidAmount = "listing.invalid_amount"

	// Contract
	KeyContractListed          = "contract.listed"
	KeyContractPurchased       = "contract.purchased"
	KeyContractRoyaltyPaid     = "contract.royalty_paid"
	KeyContractMetadataUpdated = "contract.metadata_updated"
	KeyContractFailed          = "contract.failed"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File Upload
	KeyFileUploadFailed = "file.upload_failed"
	KeyFileInvalidType  = "file.invalid_type"
	KeyFileTooLarge     = "file.too_large"

	// Search
	KeySearchNoResults = "search.no_results"

	KeyRateLimited = "rate_limit.exceeded"
)
