package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Redis      RedisConfig
	Reco       RecoConfig
	Storefront StorefrontConfig
	Breaker    BreakerConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	AllowOrigins   []string
	RateLimitPerIP float64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	PoolSize      int
	MinIdleConns  int
	DialTimeout   time.Duration
	// IOTimeout bounds single reads and writes; it stays below
	// Reco.UpstreamTimeout.
	IOTimeout time.Duration
}

type RecoConfig struct {
	CacheBackend         string
	CacheTTL             time.Duration
	UpstreamTimeout      time.Duration
	OrderWindow          int
	HalfLifeDays         float64
	AnalysisHalfLifeDays float64
	HashSeed             uint32
}

type StorefrontConfig struct {
	AvailabilityBackend string
	BaseURL             string
	AccessToken         string
	APIKey              string
	APIVersion          string
}

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	AvailabilityStorefront = "storefront"
	AvailabilityPostgres   = "postgres"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	seed, err := strconv.ParseUint(getEnv("RECO_HASH_SEED", "2654435769"), 10, 32)
	if err != nil {
		return nil, errors.New("invalid reco hash seed")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Basket Reco API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowOrigins:   []string{"*"},
			RateLimitPerIP: getEnvFloat("RATE_LIMIT_PER_IP", 20),
			ReadTimeout:    getEnvDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout:   getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "basket_reco"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 20),
			MinIdleConns:  getEnvInt("REDIS_MIN_IDLE_CONNS", 4),
			DialTimeout:   getEnvDuration("REDIS_DIAL_TIMEOUT", 2*time.Second),
			IOTimeout:     getEnvDuration("REDIS_IO_TIMEOUT", 300*time.Millisecond),
		},
		Reco: RecoConfig{
			CacheBackend:         getEnv("RECO_CACHE_BACKEND", CacheBackendMemory),
			CacheTTL:             getEnvDuration("RECO_CACHE_TTL", 30*time.Second),
			UpstreamTimeout:      getEnvDuration("RECO_UPSTREAM_TIMEOUT", 1500*time.Millisecond),
			OrderWindow:          getEnvInt("RECO_ORDER_WINDOW", 500),
			HalfLifeDays:         getEnvFloat("RECO_HALF_LIFE_DAYS", 60),
			AnalysisHalfLifeDays: getEnvFloat("RECO_ANALYSIS_HALF_LIFE_DAYS", 90),
			HashSeed:             uint32(seed),
		},
		Storefront: StorefrontConfig{
			AvailabilityBackend: getEnv("AVAILABILITY_BACKEND", AvailabilityPostgres),
			BaseURL:             getEnv("STOREFRONT_BASE_URL", ""),
			AccessToken:         getEnv("STOREFRONT_ACCESS_TOKEN", ""),
			APIKey:              getEnv("STOREFRONT_API_KEY", ""),
			APIVersion:          getEnv("STOREFRONT_API_VERSION", "2024-10"),
		},
		Breaker: BreakerConfig{
			MaxRequests:      uint32(getEnvInt("BREAKER_MAX_REQUESTS", 3)),
			Interval:         getEnvDuration("BREAKER_INTERVAL", time.Minute),
			Timeout:          getEnvDuration("BREAKER_TIMEOUT", 30*time.Second),
			FailureThreshold: uint32(getEnvInt("BREAKER_FAILURE_THRESHOLD", 5)),
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Reco.CacheBackend != CacheBackendMemory && cfg.Reco.CacheBackend != CacheBackendRedis {
		return nil, errors.New("invalid reco cache backend")
	}

	switch cfg.Storefront.AvailabilityBackend {
	case AvailabilityPostgres:
	case AvailabilityStorefront:
		if cfg.Storefront.BaseURL == "" {
			return nil, errors.New("missing storefront base url")
		}
	default:
		return nil, errors.New("invalid availability backend")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultVal
}
