package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Pricing  PricingConfig
	Ledger   LedgerConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// Addr returns the listen address for the HTTP server
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

// RedisConfig holds the quote cache configuration
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	QuoteTTL time.Duration
}

// PricingConfig holds market data provider configuration
type PricingConfig struct {
	APIKey      string
	BaseURL     string
	Timeout     time.Duration
	HistoryDays int
}

// LedgerConfig holds account defaults
type LedgerConfig struct {
	DefaultBalance decimal.Decimal
	Currency       string
}

// DefaultSessionKey signs session cookies when SESSION_KEY is unset. Development only.
const DefaultSessionKey = "dev-session-key"

// SessionConfig holds cookie session configuration
type SessionConfig struct {
	Key    string
	MaxAge int
}

// UsingDefaultKey reports whether cookies are signed with DefaultSessionKey
func (s *SessionConfig) UsingDefaultKey() bool {
	return s.Key == DefaultSessionKey
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "papertrade"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "ledger-events"),
			GroupID: getEnv("KAFKA_GROUP_ID", "papertrade-journal"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			QuoteTTL: getEnvDuration("QUOTE_CACHE_TTL", time.Minute),
		},
		Pricing: PricingConfig{
			APIKey:      getEnv("ALPHAVANTAGE_API_KEY", ""),
			BaseURL:     getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			Timeout:     getEnvDuration("PRICE_TIMEOUT", 10*time.Second),
			HistoryDays: getEnvInt("PRICE_HISTORY_DAYS", 5),
		},
		Ledger: LedgerConfig{
			DefaultBalance: getEnvDecimal("DEFAULT_BALANCE", decimal.NewFromInt(1000)),
			Currency:       getEnv("LEDGER_CURRENCY", "USD"),
		},
		Session: SessionConfig{
			Key:    getEnv("SESSION_KEY", DefaultSessionKey),
			MaxAge: getEnvInt("SESSION_MAX_AGE", 86400),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if d, err := decimal.NewFromString(os.Getenv(key)); err == nil && !d.IsNegative() {
		return d
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
