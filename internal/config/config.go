package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Blockchain BlockchainConfig
	Security   SecurityConfig
	Settlement SettlementConfig
	Realtime   RealtimeConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// AutoMigrate applies the gorm schema on startup
	AutoMigrate bool
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// BlockchainConfig describes the default chain profile. It is seeded into
// chain_profiles on startup when no profile with ChainID exists.
type BlockchainConfig struct {
	ProfileName         string
	RPCURL              string
	ChainID             int64
	FactoryAddress      string
	ExplorerURL         string
	AdminKeyEncrypted   string
	ConfirmationTimeout time.Duration
	ReceiptPollInterval time.Duration
}

// SecurityConfig holds security encryption keys
type SecurityConfig struct {
	KeyVaultSecret       string
	SessionEncryptionKey string
}

// SettlementConfig tunes the settlement orchestrator and its reconciler
type SettlementConfig struct {
	AuthorizationWindow time.Duration
	ReconcileMinAge     time.Duration
	ReconcileInterval   time.Duration
	ReconcilePolicy     string
	ReconcileBatch      int
}

// RealtimeConfig holds websocket settings
type RealtimeConfig struct {
	AllowedOrigins []string
	ClientBuffer   int
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "rete"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			AutoMigrate: getEnvAsBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry:  getEnvAsDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
			RefreshExpiry: getEnvAsDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
		},
		Blockchain: BlockchainConfig{
			ProfileName:         getEnv("CHAIN_PROFILE_NAME", "base-sepolia"),
			RPCURL:              getEnv("CHAIN_RPC_URL", "https://sepolia.base.org"),
			ChainID:             getEnvAsInt64("CHAIN_ID", 84532),
			FactoryAddress:      getEnv("FACTORY_ADDRESS", ""),
			ExplorerURL:         getEnv("CHAIN_EXPLORER_URL", "https://sepolia.basescan.org"),
			AdminKeyEncrypted:   getEnv("ADMIN_PRIVATE_KEY_ENCRYPTED", ""),
			ConfirmationTimeout: getEnvAsDuration("SETTLEMENT_CONFIRMATION_TIMEOUT", 2*time.Minute),
			ReceiptPollInterval: getEnvAsDuration("SETTLEMENT_RECEIPT_POLL_INTERVAL", 2*time.Second),
		},
		Security: SecurityConfig{
			KeyVaultSecret:       getEnv("KEY_VAULT_SECRET", ""),
			SessionEncryptionKey: getEnv("SESSION_ENCRYPTION_KEY", "0000000000000000000000000000000000000000000000000000000000000000"), // 32-bytes hex string
		},
		Settlement: SettlementConfig{
			AuthorizationWindow: getEnvAsDuration("SETTLEMENT_AUTHORIZATION_WINDOW", time.Hour),
			ReconcileMinAge:     getEnvAsDuration("SETTLEMENT_RECONCILE_MIN_AGE", 5*time.Minute),
			ReconcileInterval:   getEnvAsDuration("SETTLEMENT_RECONCILE_INTERVAL", time.Minute),
			ReconcilePolicy:     getEnv("SETTLEMENT_RECONCILE_POLICY", "leave-pending"),
			ReconcileBatch:      getEnvAsInt("SETTLEMENT_RECONCILE_BATCH", 100),
		},
		Realtime: RealtimeConfig{
			AllowedOrigins: getEnvAsList("WS_ALLOWED_ORIGINS", []string{"localhost:3000"}),
			ClientBuffer:   getEnvAsInt("WS_CLIENT_BUFFER", 32),
		},
	}
	cfg.Settlement.ReconcileMinAge = reconcileMinAge(cfg.Settlement.ReconcileMinAge, cfg.Blockchain.ConfirmationTimeout)
	return cfg
}

// reconcileMinAge keeps the reconciler off records a request is still
// confirming.
func reconcileMinAge(minAge, confirmationTimeout time.Duration) time.Duration {
	if minAge <= confirmationTimeout {
		return confirmationTimeout + time.Minute
	}
	return minAge
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string, defaultValue []string) []string {
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
