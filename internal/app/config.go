package app

import (
	"strings"
	"time"

	"github.com/yungbote/pantry-backend/internal/data/aggregates"
	"github.com/yungbote/pantry-backend/internal/data/db"
	"github.com/yungbote/pantry-backend/internal/observability"
	"github.com/yungbote/pantry-backend/internal/platform/cache"
	"github.com/yungbote/pantry-backend/internal/platform/envutil"
	"github.com/yungbote/pantry-backend/internal/platform/logger"
	"github.com/yungbote/pantry-backend/internal/platform/media"
)

type Config struct {
	HTTPAddr        string
	PublicBaseURL   string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	DB db.Config

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	Rules aggregates.CompositionRules

	Media     media.Config
	MediaPath string

	Cache           cache.Config
	CatalogCacheTTL time.Duration

	AuthRateLimitPerMin int

	Otel observability.OtelConfig
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		HTTPAddr:        envutil.String("HTTP_ADDR", ":8080", log),
		PublicBaseURL:   envutil.String("PUBLIC_BASE_URL", "http://localhost:8080", log),
		RequestTimeout:  envutil.Duration("HTTP_REQUEST_TIMEOUT", 30*time.Second, log),
		ShutdownTimeout: envutil.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second, log),
		CORSOrigins:     splitList(envutil.String("CORS_ALLOWED_ORIGINS", "", log)),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres, log),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost", log),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432", log),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres", log),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", "", log),
			PostgresName:     envutil.String("POSTGRES_NAME", "pantry", log),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable", log),
			SQLitePath:       envutil.String("SQLITE_PATH", "pantry.db", log),
			SlowThreshold:    envutil.Duration("DB_SLOW_THRESHOLD", time.Second, log),
		},

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour, log),

		Rules: aggregates.CompositionRules{
			MinCookingTime:             envutil.Int("RECIPE_MIN_COOKING_TIME", 1, log),
			MinAmount:                  envutil.Int("RECIPE_MIN_AMOUNT", 1, log),
			BootstrapAuthorMemberships: envutil.Bool("RECIPE_AUTHOR_BOOTSTRAP", true, log),
		},

		Media: media.Config{
			Root:         envutil.String("MEDIA_ROOT", "media", log),
			BaseURL:      envutil.String("MEDIA_BASE_URL", "/media", log),
			MaxDimension: envutil.Int("MEDIA_MAX_DIMENSION", 1600, log),
		},
		MediaPath: envutil.String("MEDIA_PATH", "/media", log),

		Cache: cache.Config{
			Addr:     envutil.String("REDIS_ADDR", "", log),
			Password: envutil.String("REDIS_PASSWORD", "", log),
			DB:       envutil.Int("REDIS_DB", 0, log),
			Prefix:   envutil.String("REDIS_PREFIX", "pantry", log),
		},
		CatalogCacheTTL: envutil.Duration("CATALOG_CACHE_TTL", 10*time.Minute, log),

		AuthRateLimitPerMin: envutil.Int("AUTH_RATE_LIMIT_PER_MIN", 20, log),

		Otel: observability.OtelConfig{
			Enabled:     envutil.Bool("OTEL_ENABLED", false, log),
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "pantry-backend", log),
			Environment: envutil.String("APP_ENV", "development", log),
			Version:     envutil.String("APP_VERSION", "", log),
			Exporter:    envutil.String("OTEL_EXPORTER", "", log),
			Endpoint:    envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", "", log),
			Insecure:    envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", true, log),
			SampleRatio: envutil.Float("OTEL_SAMPLE_RATIO", 1, log),
		},
	}
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
