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

// Config holds all configuration for our application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Security SecurityConfig
	External ExternalConfig
	Shop     ShopConfig
	Checkout CheckoutConfig
	Logging  LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
	SecureCookies      bool
}

// ExternalConfig contains external service configurations
type ExternalConfig struct {
	Stripe  StripeConfig
	Carrier CarrierConfig
	CMS     CMSConfig
}

// StripeConfig contains Stripe payment configuration
type StripeConfig struct {
	SecretKey         string
	PublishableKey    string
	MaxNetworkRetries int64
}

// CarrierConfig contains the shipping carrier API configuration
type CarrierConfig struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

// CMSConfig contains the headless CMS configuration
type CMSConfig struct {
	BaseURL       string
	AccessToken   string
	DefaultLocale string
	CacheTTL      time.Duration
}

// ShopConfig describes the shop itself: its shipping origin and currency
type ShopConfig struct {
	Name          string
	Currency      string
	OriginName    string
	OriginLine1   string
	OriginLine2   string
	OriginCity    string
	OriginPostal  string
	OriginCountry string
	OriginPhone   string
}

// CheckoutConfig contains cart and checkout tuning
type CheckoutConfig struct {
	ProviderTimeout    time.Duration
	RepriceFromCatalog bool
	CartTTL            time.Duration
	QuoteTTL           time.Duration
	ConfirmationTTL    time.Duration
	CatalogCacheTTL    time.Duration
	ResolveConcurrency int
	MaxAmountMinor     int64
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storefront Checkout"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 25*time.Second),
			MaxBodyBytes:   getEnvAsInt64("SERVER_MAX_BODY_BYTES", 1<<20), // 1MB
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront_db"),
			User:         getEnv("DB_USER", "storefront_user"),
			Password:     getEnv("DB_PASSWORD", "storefront_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
			SecureCookies:      getEnvAsBool("SECURE_COOKIES", false),
		},
		External: ExternalConfig{
			Stripe: StripeConfig{
				SecretKey:         getEnv("STRIPE_SECRET_KEY", ""),
				PublishableKey:    getEnv("STRIPE_PUBLISHABLE_KEY", ""),
				MaxNetworkRetries: getEnvAsInt64("STRIPE_MAX_NETWORK_RETRIES", 2),
			},
			Carrier: CarrierConfig{
				BaseURL:   getEnv("CARRIER_BASE_URL", "https://api.carrier.example/v1"),
				APIKey:    getEnv("CARRIER_API_KEY", ""),
				APISecret: getEnv("CARRIER_API_SECRET", ""),
			},
			CMS: CMSConfig{
				BaseURL:       getEnv("CMS_BASE_URL", "https://cms.example/api/v2"),
				AccessToken:   getEnv("CMS_ACCESS_TOKEN", ""),
				DefaultLocale: getEnv("CMS_DEFAULT_LOCALE", "en-us"),
				CacheTTL:      getEnvAsDuration("CMS_CACHE_TTL", 5*time.Minute),
			},
		},
		Shop: ShopConfig{
			Name:          getEnv("SHOP_NAME", "Storefront"),
			Currency:      strings.ToUpper(getEnv("SHOP_CURRENCY", "EUR")),
			OriginName:    getEnv("SHOP_ORIGIN_NAME", "Storefront Warehouse"),
			OriginLine1:   getEnv("SHOP_ORIGIN_LINE1", "Keizersgracht 1"),
			OriginLine2:   getEnv("SHOP_ORIGIN_LINE2", ""),
			OriginCity:    getEnv("SHOP_ORIGIN_CITY", "Amsterdam"),
			OriginPostal:  getEnv("SHOP_ORIGIN_POSTAL_CODE", "1015AA"),
			OriginCountry: strings.ToUpper(getEnv("SHOP_ORIGIN_COUNTRY", "NL")),
			OriginPhone:   getEnv("SHOP_ORIGIN_PHONE", ""),
		},
		Checkout: CheckoutConfig{
			ProviderTimeout:    getEnvAsDuration("PROVIDER_TIMEOUT", 15*time.Second),
			RepriceFromCatalog: getEnvAsBool("CHECKOUT_REPRICE_FROM_CATALOG", true),
			CartTTL:            getEnvAsDuration("CART_TTL", 30*24*time.Hour),
			QuoteTTL:           getEnvAsDuration("SHIPPING_QUOTE_TTL", 30*time.Minute),
			ConfirmationTTL:    getEnvAsDuration("CONFIRMATION_TTL", 7*24*time.Hour),
			CatalogCacheTTL:    getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),
			ResolveConcurrency: getEnvAsInt("CATALOG_RESOLVE_CONCURRENCY", 8),
			MaxAmountMinor:     getEnvAsInt64("CHECKOUT_MAX_AMOUNT_MINOR", 99_999_999),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate database configuration
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("DB_USER is required")
	}

	// Validate Redis configuration
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	// Validate server port
	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	// The origin address is sent with every shipping quote
	if c.Shop.OriginLine1 == "" || c.Shop.OriginCity == "" || c.Shop.OriginPostal == "" {
		return fmt.Errorf("SHOP_ORIGIN_LINE1, SHOP_ORIGIN_CITY and SHOP_ORIGIN_POSTAL_CODE are required")
	}
	if len(c.Shop.OriginCountry) != 2 {
		return fmt.Errorf("SHOP_ORIGIN_COUNTRY must be a two-letter country code")
	}
	if len(c.Shop.Currency) != 3 {
		return fmt.Errorf("SHOP_CURRENCY must be a three-letter currency code")
	}

	if c.IsProduction() && c.External.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
	}

	if c.Checkout.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.Checkout.MaxAmountMinor <= 0 {
		return fmt.Errorf("CHECKOUT_MAX_AMOUNT_MINOR must be positive")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseEnv returns the parsed value of key, or defaultValue when the
// variable is unset or does not parse.
func parseEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := parse(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvAsInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	return parseEnv(key, defaultValue, func(v string) (int64, error) {
		return strconv.ParseInt(v, 10, 64)
	})
}

func getEnvAsBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, strconv.ParseBool)
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// getEnvAsSlice splits a comma separated list, dropping blank entries
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
