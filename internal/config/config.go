package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerPort int

	DatabaseURL string

	JWTSecret []byte
	TokenTTL  time.Duration

	// RevocationMode selects how logout invalidates a session: "set" removes
	// the token from the subject's live-token set, "blacklist" records the
	// token digest until its natural expiry.
	RevocationMode string

	UploadDir string

	ESURL      string
	ESUser     string
	ESPassword string

	KafkaBrokers []string

	LogLevel string
}

func Load() (*Config, error) {
	if err := loadDotenv(); err != nil {
		log.Printf("notice: .env file not found: %v, using system environment", err)
	}

	cfg := &Config{
		ServerPort:     envIntDefault("SERVER_PORT", 8080),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:       envDurationDefault("TOKEN_TTL", 24*time.Hour),
		RevocationMode: envDefault("AUTH_REVOCATION", "set"),
		UploadDir:      envDefault("UPLOAD_DIR", "./uploads"),
		ESURL:          os.Getenv("ES_URL"),
		ESUser:         os.Getenv("ES_USER"),
		ESPassword:     os.Getenv("ES_PASSWORD"),
		KafkaBrokers:   csv(os.Getenv("KAFKA_BROKERS")),
		LogLevel:       envDefault("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
