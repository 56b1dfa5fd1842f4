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
	AppName     string
	AppEnv      string
	AppPort     string
	DatabaseURL string
	RedisURL    string
	NATSURL     string
	ChannelBase string

	JWTSecret   string
	JWTTokenTTL time.Duration

	AIAPIKey      string
	AIBaseURL     string
	AIModel       string
	AITimeout     time.Duration
	YouTubeAPIKey string
	RapidAPIKey   string

	ResourceCacheTTL time.Duration
	TutorContextSize int

	// ExposeGenerationOutcome controls whether API responses reveal that a
	// roadmap or plan was repaired or served from the deterministic
	// fallback instead of genuine provider output.
	ExposeGenerationOutcome bool
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
	v.SetEnvPrefix("ASCENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Ascent API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("channel.base", "ascent")
	v.SetDefault("jwt.token_ttl", "168h")
	v.SetDefault("ai.model", "llama-3.3-70b-versatile")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("resource.cache_ttl", "15m")
	v.SetDefault("tutor.context_size", 10)
	v.SetDefault("roadmap.expose_outcome", true)

	tokenTTL, err := time.ParseDuration(v.GetString("jwt.token_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt token ttl: %w", err)
	}

	aiTimeout, err := time.ParseDuration(v.GetString("ai.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("resource.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid resource cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		DatabaseURL:             v.GetString("database.url"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		ChannelBase:             v.GetString("channel.base"),
		JWTSecret:               v.GetString("jwt.secret"),
		JWTTokenTTL:             tokenTTL,
		AIAPIKey:                v.GetString("ai.api_key"),
		AIBaseURL:               v.GetString("ai.base_url"),
		AIModel:                 v.GetString("ai.model"),
		AITimeout:               aiTimeout,
		YouTubeAPIKey:           v.GetString("youtube.api_key"),
		RapidAPIKey:             v.GetString("rapidapi.key"),
		ResourceCacheTTL:        cacheTTL,
		TutorContextSize:        v.GetInt("tutor.context_size"),
		ExposeGenerationOutcome: v.GetBool("roadmap.expose_outcome"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AIAPIKey == "" {
		return Config{}, fmt.Errorf("ai api key must be provided")
	}

	if cfg.TutorContextSize <= 0 {
		cfg.TutorContextSize = 10
	}

	return cfg, nil
}
