// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultWalletSecret = "your-secret-key-change-in-production"

type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Latency     LatencyConfig
	Wallet      WalletConfig
	Algorand    AlgorandConfig
	AWS         AWSConfig
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	Metrics     MetricsConfig
	Frontend    FrontendConfig
}

type FrontendConfig struct {
	BaseURL string
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

// StoreConfig selects where the registry and listing book keep their records.
type StoreConfig struct {
	Driver string // memory, postgres or sqlite
	Seed   bool
	// ExpirySweepInterval of zero leaves listing expiry unenforced.
	ExpirySweepInterval time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// LatencyConfig holds the simulated network latency of each mock ledger call.
type LatencyConfig struct {
	Enabled     bool
	ListAssets  time.Duration
	GetAsset    time.Duration
	Mint        time.Duration
	ListListing time.Duration
	Purchase    time.Duration
	Royalty     time.Duration
}

type WalletConfig struct {
	SecretKey  string
	SessionTTL int // in hours
	Providers  []string
}

// AlgorandConfig is collaborator configuration; the mock paths never reach the node.
type AlgorandConfig struct {
	Network    string
	NodeServer string
	NodePort   string
	NodeToken  string
	ContractID string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	CloudFrontURL   string
}

type StorageConfig struct {
	LocalDir     string
	PublicURL    string
	MaxImageSize int64
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Store: StoreConfig{
			Driver:              getEnv("STORE_DRIVER", "memory"),
			Seed:                getEnvAsBool("STORE_SEED", true),
			ExpirySweepInterval: getEnvAsDuration("LISTING_EXPIRY_SWEEP", 0),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "ip_nexus"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   getEnv("DB_SQLITE_PATH", "ip_nexus.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		Latency: LatencyConfig{
			Enabled:     getEnvAsBool("SIMULATED_LATENCY", true),
			ListAssets:  getEnvAsDuration("LATENCY_LIST_ASSETS", 500*time.Millisecond),
			GetAsset:    getEnvAsDuration("LATENCY_GET_ASSET", 300*time.Millisecond),
			Mint:        getEnvAsDuration("LATENCY_MINT", time.Second),
			ListListing: getEnvAsDuration("LATENCY_LIST_LISTINGS", 500*time.Millisecond),
			Purchase:    getEnvAsDuration("LATENCY_PURCHASE", time.Second),
			Royalty:     getEnvAsDuration("LATENCY_ROYALTY", time.Second),
		},
		Wallet: WalletConfig{
			SecretKey:  getEnv("WALLET_SESSION_SECRET", defaultWalletSecret),
			SessionTTL: getEnvAsInt("WALLET_SESSION_TTL", 24),
			Providers:  getEnvAsList("WALLET_PROVIDERS", []string{"pera", "defly"}),
		},
		Algorand: AlgorandConfig{
			Network:    getEnv("ALGORAND_NETWORK", "testnet"),
			NodeServer: getEnv("ALGORAND_NODE_SERVER", "https://testnet-api.algonode.cloud"),
			NodePort:   getEnv("ALGORAND_NODE_PORT", ""),
			NodeToken:  getEnv("ALGORAND_NODE_TOKEN", ""),
			ContractID: getEnv("CONTRACT_ID", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        getEnv("AWS_S3_BUCKET", "ip-nexus-assets"),
			CloudFrontURL:   getEnv("AWS_CLOUDFRONT_URL", ""),
		},
		Storage: StorageConfig{
			LocalDir:     getEnv("UPLOAD_DIR", "./uploads"),
			PublicURL:    getEnv("UPLOAD_PUBLIC_URL", "http://localhost:8080/uploads"),
			MaxImageSize: int64(getEnvAsInt("UPLOAD_MAX_IMAGE_MB", 5)) * 1024 * 1024,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Frontend: FrontendConfig{
			BaseURL: getEnv("FRONTEND_BASE_URL", "http://localhost:5173"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}

	if c.Wallet.SecretKey == defaultWalletSecret && c.Environment == "production" {
		return fmt.Errorf("wallet session secret must be changed in production")
	}

	if c.Store.Driver == "postgres" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if len(c.Wallet.Providers) == 0 {
		return fmt.Errorf("at least one wallet provider must be configured")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
