package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string
	AdminToken    string
	DemoMode      bool

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig

	RateLimit RateLimitConfig
}

// DatabaseConfig holds the Postgres connection settings.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the Redis connection settings. An empty URL means
// Redis is not configured and in-memory fallbacks are used.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds broker settings for notifications and audit forwarding.
// Empty brokers means Kafka is not configured.
type KafkaConfig struct {
	Brokers           string
	NotificationTopic string
	AuditTopic        string
}

// RateLimitConfig carries per-action limits. Windows are sliding. Opening
// an appeal is limited over a longer window than the hourly default.
type RateLimitConfig struct {
	Disabled bool

	PetitionCreate     int
	PetitionResubmit   int
	AppealCreate       int
	AppealCreateWindow time.Duration
	AppealMessage      int
	Window             time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("ARIDA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		DemoMode:      os.Getenv("DEMO_MODE") == "true",
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           os.Getenv("KAFKA_BROKERS"),
			NotificationTopic: envString("KAFKA_NOTIFICATION_TOPIC", "arida.notifications"),
			AuditTopic:        envString("KAFKA_AUDIT_TOPIC", "arida.audit.entries"),
		},
		RateLimit: RateLimitConfig{
			Disabled:           os.Getenv("RATELIMIT_DISABLED") == "true",
			PetitionCreate:     envInt("RATELIMIT_PETITION_CREATE", 3),
			PetitionResubmit:   envInt("RATELIMIT_PETITION_RESUBMIT", 3),
			AppealCreate:       envInt("RATELIMIT_APPEAL_CREATE", 5),
			AppealCreateWindow: envDuration("RATELIMIT_APPEAL_CREATE_WINDOW", 24*time.Hour),
			AppealMessage:      envInt("RATELIMIT_APPEAL_MESSAGE", 20),
			Window:             envDuration("RATELIMIT_WINDOW", time.Hour),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
