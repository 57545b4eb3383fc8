package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port           string
	MongoDBURI     string
	MongoDBName    string
	TokenSecret    string
	TokenTTLHours  int
	HashCost       int
	AppURL         string
	UploadDir      string
	AllowedOrigins []string

	SMTPHost         string
	SMTPPort         string
	SMTPUser         string
	SMTPClientID     string
	SMTPClientSecret string
	SMTPRefreshToken string

	Environment string
	LogLevel    string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8080"),
		MongoDBURI:     os.Getenv("MONGODB_URI"),
		MongoDBName:    getEnvWithDefault("MONGODB_DB", "peti"),
		TokenSecret:    os.Getenv("TOKEN_SECRET"),
		AppURL:         getEnvWithDefault("APP_URL", "http://localhost:3000/"),
		UploadDir:      getEnvWithDefault("UPLOAD_DIR", "public/images"),
		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvWithDefault("SMTP_PORT", "587"),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPClientID:     os.Getenv("SMTP_CLIENT_ID"),
		SMTPClientSecret: os.Getenv("SMTP_CLIENT_SECRET"),
		SMTPRefreshToken: os.Getenv("SMTP_REFRESH_TOKEN"),

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
	}

	var err error
	cfg.TokenTTLHours, err = getEnvInt("TOKEN_TTL_HOURS", 24)
	if err != nil {
		return nil, err
	}
	cfg.HashCost, err = getEnvInt("HASH_COST", bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	if cfg.HashCost < bcrypt.MinCost || cfg.HashCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("HASH_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %v", key, err)
	}
	return value, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
