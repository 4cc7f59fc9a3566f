package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database      DatabaseConfig
	Providers     ProviderConfig
	Pricing       PricingConfig
	Verification  VerificationConfig
	Documents     DocumentsConfig
	Notifications NotificationConfig
	Server        ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ProviderConfig holds upstream chain and price endpoints
type ProviderConfig struct {
	EthereumRpcUrl string
	BitcoinApiUrl  string
	PriceApiUrl    string
	HttpTimeout    time.Duration
	RequestsPerSec float64
	Burst          int
}

// PricingConfig holds price cache settings and per-chain fallbacks
type PricingConfig struct {
	CacheTTL  time.Duration
	Fallbacks map[ChainSymbol]decimal.Decimal
	CoinIds   map[ChainSymbol]string
}

// VerificationConfig holds client throttling and audit settings
type VerificationConfig struct {
	Cooldown         time.Duration
	AuditConcurrency int
	ChainsFile       string
}

// DocumentsConfig holds the uploaded document store location. PublicUrl
// prefixes document links handed to reviewers; the default is the JWT-gated
// admin documents route.
type DocumentsConfig struct {
	Dir       string
	PublicUrl string
}

// NotificationConfig holds EmailJS settings. An empty ServiceId disables
// outbound email and status changes are only logged.
type NotificationConfig struct {
	ApiUrl     string
	ServiceId  string
	TemplateId string
	PublicKey  string
	PrivateKey string
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr           string
	AdminJwtSecret string
	// TrustedProxies lists proxy IPs or CIDRs whose forwarding headers are believed
	TrustedProxies []string
}
