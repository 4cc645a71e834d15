package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	StoreRedis    = "redis"
)

type Config struct {
	Env  string
	Port int

	// persistence
	Store         string
	DBURL         string
	DBMaxConns    int
	DBConnTimeout time.Duration

	// sessions
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
	RedisTimeout  time.Duration
	SessionTTL    time.Duration
	RememberTTL   time.Duration

	BcryptCost   int
	MaxBodyBytes int64

	// observability
	MetricsEnabled bool
	OTelEnabled    bool
	OTelEndpoint   string
	// share of new root traces that are sampled, 0..1
	OTelSampleRatio float64

	// demo data, memory store only
	SeedDemo     bool
	DemoPassword string
}

func Load() Config {
	// a missing .env file is fine, the environment wins anyway
	_ = godotenv.Load()

	return Config{
		Env:           getEnv("APP_ENV", "dev"),
		Port:          getEnvInt("PORT", 8080),
		Store:         getEnv("STORE", StorePostgres),
		DBURL:         buildDBURL(),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 5),
		DBConnTimeout: getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second),

		SessionStore:  getEnv("SESSION_STORE", StoreRedis),
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPoolSize: getEnvInt("REDIS_POOL_SIZE", 10),
		RedisTimeout:  getEnvDuration("REDIS_TIMEOUT", 2*time.Second),
		SessionTTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
		RememberTTL:   getEnvDuration("REMEMBER_TTL", 365*24*time.Hour),

		BcryptCost:   getEnvInt("BCRYPT_COST", 0),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 64<<10)),

		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),

		SeedDemo:     getEnvBool("SEED_DEMO", false),
		DemoPassword: getEnv("DEMO_PASSWORD", "password1"),
	}
}

// IsProd reports whether cookies should be marked Secure.
func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "microblog")
	pass := getEnv("DB_PASSWORD", "microblog")
	name := getEnv("DB_NAME", "microblog")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)

		if err != nil {
			slog.Warn("invalid boolean in environment, using default", "key", key, "value", v)
			return fallback
		}

		return b
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)

		if err != nil || f < 0 || f > 1 {
			slog.Warn("invalid ratio in environment, using default", "key", key, "value", v)
			return fallback
		}

		return f
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)

		if err != nil || d <= 0 {
			slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
			return fallback
		}

		return d
	}
	return fallback
}
