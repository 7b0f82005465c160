// shared/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// CommonConfig holds the infrastructure settings every binary reads.
type CommonConfig struct {
	// STORE_DRIVER selects the persistence backend: "postgres" or "memory".
	STORE_DRIVER string

	//Database (PostgreSQL) config
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_HOST     string
	DB_PORT     string

	//Kafka config
	KAFKA_TOPIC    string
	KAFKA_BROKER   string
	KAFKA_GROUP_ID string

	//RabbitMQ config
	RABBITMQ_USER     string
	RABBITMQ_PASSWORD string
	RABBITMQ_HOST     string
	RABBITMQ_PORT     string

	// Role cache. An empty REDIS_ADDR keeps the cache in process.
	REDIS_ADDR     string
	REDIS_PASSWORD string
	REDIS_DB       int
	ROLE_CACHE_TTL time.Duration

	LOG_FORMAT string
	LOG_LEVEL  string

	STORE_RETRY_MAX     uint64
	STORE_RETRY_INITIAL time.Duration

	RECONCILE_INTERVAL time.Duration
	RECONCILE_BATCH    int
	RECONCILE_WORKERS  int
}

// LoadCommonConfig reads the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func LoadCommonConfig() *CommonConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "error", err)
	}

	return &CommonConfig{
		STORE_DRIVER: GetEnvOrDefault("STORE_DRIVER", "postgres"),

		DB_USER:     os.Getenv("DB_USER"),
		DB_PASSWORD: os.Getenv("DB_PASSWORD"),
		DB_HOST:     GetEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:     GetEnvOrDefault("DB_PORT", "5432"),
		DB_NAME:     os.Getenv("DB_NAME"),

		KAFKA_TOPIC:    GetEnvOrDefault("KAFKA_TOPIC", "membership-events"),
		KAFKA_BROKER:   GetEnvOrDefault("KAFKA_BROKER", "localhost:9092"),
		KAFKA_GROUP_ID: GetEnvOrDefault("KAFKA_GROUP_ID", "membership-notifier"),

		RABBITMQ_USER:     GetEnvOrDefault("RABBITMQ_USER", "guest"),
		RABBITMQ_PASSWORD: GetEnvOrDefault("RABBITMQ_PASSWORD", "guest"),
		RABBITMQ_HOST:     os.Getenv("RABBITMQ_HOST"),
		RABBITMQ_PORT:     os.Getenv("RABBITMQ_PORT"),

		REDIS_ADDR:     os.Getenv("REDIS_ADDR"),
		REDIS_PASSWORD: os.Getenv("REDIS_PASSWORD"),
		REDIS_DB:       getInt("REDIS_DB", 0),
		ROLE_CACHE_TTL: getDuration("ROLE_CACHE_TTL", 5*time.Minute),

		LOG_FORMAT: GetEnvOrDefault("LOG_FORMAT", "json"),
		LOG_LEVEL:  GetEnvOrDefault("LOG_LEVEL", "info"),

		STORE_RETRY_MAX:     uint64(getInt("STORE_RETRY_MAX", 3)),
		STORE_RETRY_INITIAL: getDuration("STORE_RETRY_INITIAL", 100*time.Millisecond),

		RECONCILE_INTERVAL: getDuration("RECONCILE_INTERVAL", 10*time.Minute),
		RECONCILE_BATCH:    getInt("RECONCILE_BATCH", 200),
		RECONCILE_WORKERS:  getInt("RECONCILE_WORKERS", 4),
	}
}

// GetEnvOrDefault returns the variable or fallback when it is unset or empty.
func GetEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", v)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration setting", "key", key, "value", v)
		return fallback
	}
	return d
}

// GetDBURL formats the config into a PostgreSQL connection string
func (c *CommonConfig) GetDBURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", c.DB_USER, c.DB_PASSWORD, c.DB_HOST, c.DB_PORT, c.DB_NAME)
}

// GetRabbitMQURL formats the config into a RabbitMQ connection string.
// Missing host and port fall back to the standard local broker.
func (c *CommonConfig) GetRabbitMQURL() string {
	host := c.RABBITMQ_HOST
	if host == "" {
		host = "localhost"
	}
	port := c.RABBITMQ_PORT
	if port == "" {
		port = "5672"
	}

	return fmt.Sprintf("amqp://%s:%s@%s:%s/",
		c.RABBITMQ_USER, c.RABBITMQ_PASSWORD, host, port)
}
