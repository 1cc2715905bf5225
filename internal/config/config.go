package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	API         APIConfig
	Identity    IdentityConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Cart        CartConfig
	CORS        CORSConfig
	LogLevel    string
}

// APIConfig points the gateway at the remote catalog/cart/booking API.
type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	RateLimit    float64 // requests per second, 0 disables limiting
	RateBurst    int
	Localization string
	ZoneID       string
	// SuccessCodes pins an exact response_code literal per endpoint name.
	SuccessCodes map[string]string
}

type IdentityConfig struct {
	Store   string // postgres (default), redis, or memory for tests and throwaway runs
	Profile string
	SealKey string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type CartConfig struct {
	PageLimit int
}

type CORSConfig struct {
	AllowedOrigins []string
}

const (
	// IdentityStoreMemory loses the guest id and token on restart.
	IdentityStoreMemory   = "memory"
	IdentityStorePostgres = "postgres"
	IdentityStoreRedis    = "redis"
)

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("IDENTITY_STORE", IdentityStorePostgres)

	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeoutSeconds, err := getIntOrViper("API_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	rateLimit, err := getFloatOrViper("API_RATE_LIMIT", 0)
	if err != nil {
		return nil, err
	}
	rateBurst, err := getIntOrViper("API_RATE_BURST", 5)
	if err != nil {
		return nil, err
	}
	redisDB, err := getIntOrViper("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	pageLimit, err := getIntOrViper("CART_PAGE_LIMIT", 100)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		API: APIConfig{
			BaseURL:      strings.TrimRight(getEnvOrViper("API_BASE_URL", ""), "/"),
			Timeout:      time.Duration(timeoutSeconds) * time.Second,
			RateLimit:    rateLimit,
			RateBurst:    rateBurst,
			Localization: getEnvOrViper("API_LOCALIZATION", "en"),
			ZoneID:       getEnvOrViper("API_ZONE_ID", ""),
		},
		Identity: IdentityConfig{
			Store:   strings.ToLower(getEnvOrViper("IDENTITY_STORE", IdentityStorePostgres)),
			Profile: getEnvOrViper("IDENTITY_PROFILE", "default"),
			SealKey: getEnvOrViper("IDENTITY_SEAL_KEY", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "servicecart"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrViper("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrViper("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Cart: CartConfig{
			PageLimit: pageLimit,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnvOrViper("CORS_ALLOWED_ORIGINS", "*")),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	codes, err := ParseSuccessCodes(getEnvOrViper("API_SUCCESS_CODES", ""))
	if err != nil {
		return nil, err
	}
	cfg.API.SuccessCodes = codes

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks required fields and enumerations
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	switch c.Identity.Store {
	case IdentityStoreMemory, IdentityStorePostgres, IdentityStoreRedis:
	default:
		return fmt.Errorf("IDENTITY_STORE must be memory, postgres or redis, got %q", c.Identity.Store)
	}
	if c.Identity.Profile == "" {
		return fmt.Errorf("IDENTITY_PROFILE must not be empty")
	}
	if c.Cart.PageLimit < 1 {
		return fmt.Errorf("CART_PAGE_LIMIT must be at least 1")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("API_RATE_LIMIT must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// Durable reports whether the identity store survives a restart.
func (c IdentityConfig) Durable() bool {
	return c.Store == IdentityStorePostgres || c.Store == IdentityStoreRedis
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// ParseSuccessCodes parses "cart.update=default_update_200,cart.remove=default_delete_200".
func ParseSuccessCodes(raw string) (map[string]string, error) {
	codes := make(map[string]string)
	for _, pair := range splitList(raw) {
		name, literal, ok := strings.Cut(pair, "=")
		name, literal = strings.TrimSpace(name), strings.TrimSpace(literal)
		if !ok || name == "" || literal == "" {
			return nil, fmt.Errorf("invalid API_SUCCESS_CODES entry %q", pair)
		}
		codes[name] = literal
	}
	return codes, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getIntOrViper(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(getEnvOrViper(key, ""))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

func getFloatOrViper(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(getEnvOrViper(key, ""))
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return f, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
