package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName              string
	AppEnv               string
	AppPort              string
	DatabaseURL          string
	RedisURL             string
	NATSURL              string
	NATSSubjectPrefix    string
	JWTSecret            string
	JWTAccessTTL         time.Duration
	JWTRefreshTTL        time.Duration
	StatsCacheTTL        time.Duration
	AIProvider           string
	AITimeout            time.Duration
	GeminiAPIKey         string
	GeminiModel          string
	GeminiDirectEndpoint string
	GroqAPIKey           string
	GroqModel            string
	GroqBaseURL          string
	EvaluationRateLimit  int
	CORSAllowOrigins     []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("REDAIA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "RedaIA API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject_prefix", "redaia")
	v.SetDefault("jwt.access_ttl", "24h")
	v.SetDefault("jwt.refresh_ttl", "720h")
	v.SetDefault("stats.cache_ttl", "5m")
	v.SetDefault("ai.provider", "local")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("evaluation.rate_limit", 5)
	v.SetDefault("cors.allow_origins", "*")

	accessTTL, err := parseDuration(v, "jwt.access_ttl")
	if err != nil {
		return Config{}, err
	}
	refreshTTL, err := parseDuration(v, "jwt.refresh_ttl")
	if err != nil {
		return Config{}, err
	}
	statsTTL, err := parseDuration(v, "stats.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	aiTimeout, err := parseDuration(v, "ai.timeout")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:              v.GetString("app.name"),
		AppEnv:               v.GetString("app.env"),
		AppPort:              v.GetString("app.port"),
		DatabaseURL:          v.GetString("database.url"),
		RedisURL:             v.GetString("redis.url"),
		NATSURL:              v.GetString("nats.url"),
		NATSSubjectPrefix:    strings.Trim(v.GetString("nats.subject_prefix"), ". "),
		JWTSecret:            v.GetString("jwt.secret"),
		JWTAccessTTL:         accessTTL,
		JWTRefreshTTL:        refreshTTL,
		StatsCacheTTL:        statsTTL,
		AIProvider:           strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		AITimeout:            aiTimeout,
		GeminiAPIKey:         v.GetString("gemini.api_key"),
		GeminiModel:          v.GetString("gemini.model"),
		GeminiDirectEndpoint: v.GetString("gemini_direct.endpoint"),
		GroqAPIKey:           v.GetString("groq.api_key"),
		GroqModel:            v.GetString("groq.model"),
		GroqBaseURL:          v.GetString("groq.base_url"),
		EvaluationRateLimit:  v.GetInt("evaluation.rate_limit"),
		CORSAllowOrigins:     splitList(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.EvaluationRateLimit <= 0 {
		cfg.EvaluationRateLimit = 5
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return duration, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
