package config

import (
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
	Lock     LockConfig
	Payment  PaymentConfig
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig はRedis設定
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GatewayConfig は決済ゲートウェイ（モックバックエンド）設定
type GatewayConfig struct {
	BkashBaseURL      string
	SSLCommerzBaseURL string
	StoreID           string
	StorePassword     string
	Timeout           time.Duration
}

// LockConfig は座席ロックの設定
type LockConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// PaymentConfig は決済ポーリングの設定
type PaymentConfig struct {
	PollInterval  time.Duration
	PendingExpiry time.Duration
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "bus_ticket_booking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Gateway: GatewayConfig{
			BkashBaseURL:      getEnv("BKASH_BASE_URL", "http://localhost:9090/bkash"),
			SSLCommerzBaseURL: getEnv("SSLCOMMERZ_BASE_URL", "http://localhost:9090/sslcommerz"),
			StoreID:           getEnv("GATEWAY_STORE_ID", "teststore"),
			StorePassword:     getEnv("GATEWAY_STORE_PASSWORD", "testpass"),
			Timeout:           getDurationEnv("GATEWAY_TIMEOUT", 10*time.Second),
		},
		Lock: LockConfig{
			TTL:           getDurationEnv("SEAT_LOCK_TTL", 10*time.Minute),
			SweepInterval: getDurationEnv("SEAT_LOCK_SWEEP_INTERVAL", time.Minute),
		},
		Payment: PaymentConfig{
			PollInterval:  getDurationEnv("PAYMENT_POLL_INTERVAL", 2*time.Second),
			PendingExpiry: getDurationEnv("PAYMENT_PENDING_EXPIRY", 30*time.Minute),
		},
	}
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
