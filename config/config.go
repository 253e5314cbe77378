package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Port        string
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string
	PubNubUUID         string

	// Payment gateway configuration
	GatewayProvider    string
	PaystackBaseURL    string
	PaystackSecretKey  string
	Currency           string
	CallbackURL        string

	// Verification configuration
	ProcessingReclaim time.Duration
	TxMaxRetries      int

	// Check-in configuration
	CheckinKeyHash string

	// Notification configuration
	NotifyQueueKey string
	StatusCacheTTL time.Duration

	// Monitoring
	EnableMetrics bool
	MetricsPort   string
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Port:        getEnv("PORT", "8090"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),
		PubNubUUID:         getEnv("PUBNUB_UUID", "eventra-server"),

		// Gateway
		GatewayProvider:   getEnv("GATEWAY_PROVIDER", "paystack"),
		PaystackBaseURL:   getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackSecretKey: getEnv("PAYSTACK_SECRET_KEY", ""),
		Currency:          getEnv("PAYMENT_CURRENCY", "NGN"),
		CallbackURL:       getEnv("PAYMENT_CALLBACK_URL", "http://localhost:8090/api/v1/payments/verify"),

		// Verification
		ProcessingReclaim: getEnvAsDuration("PROCESSING_RECLAIM", "15m"),
		TxMaxRetries:      getEnvAsInt("TX_MAX_RETRIES", 3),

		// Check-in
		CheckinKeyHash: getEnv("CHECKIN_KEY_HASH", ""),

		// Notifications
		NotifyQueueKey: getEnv("NOTIFY_QUEUE_KEY", "notifications:outbox"),
		StatusCacheTTL: getEnvAsDuration("STATUS_CACHE_TTL", "30m"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
		MetricsPort:   getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
