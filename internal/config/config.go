package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Auth           AuthConfig
	Postgres       PostgresConfig
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret     string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	AdminUsername string
	AdminPassword string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

func Load() Config {
	return Config{
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			Issuer:        getenv("JWT_ISSUER", "jwt-api"),
			Audience:      getenv("JWT_AUDIENCE", "jwt-api-clients"),
			AccessTTL:     accessTTL(os.Getenv("JWT_ACCESS_TTL_MINUTES")),
			AdminUsername: os.Getenv("ADMIN_USERNAME"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		AllowedOrigins: splitCSV(os.Getenv("ALLOWED_ORIGINS")),
	}
}

// accessTTL - 분 단위 설정값. 없거나 파싱 불가면 60분.
func accessTTL(raw string) time.Duration {
	minutes, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
