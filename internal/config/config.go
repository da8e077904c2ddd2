package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the admissions API.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	RuleCacheTTL        time.Duration
	EventChannel        string
	AssessRateLimit     int
	AssessRateWindow    time.Duration
	SeedEnabled         bool
	SeedToken           string
	WeightSubjectCount  float64
	WeightGradeAverage  float64
	WeightCoreSubjects  float64
	ShutdownGracePeriod time.Duration
	CORSOrigins         []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	return load(true)
}

// LoadForTools reads the same configuration as Load without requiring the
// HTTP-only settings such as the JWT secret.
func LoadForTools() (Config, error) {
	return load(false)
}

func load(requireJWT bool) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("MIHAS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "MIHAS-KATC Admissions API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("rules.cache_ttl", "5m")
	v.SetDefault("events.channel", "mihas:admissions")
	v.SetDefault("assess.rate_limit", 30)
	v.SetDefault("assess.rate_window", "1m")
	v.SetDefault("seed.enabled", false)
	v.SetDefault("weights.subject_count", 1)
	v.SetDefault("weights.grade_average", 1)
	v.SetDefault("weights.core_subjects", 2)
	v.SetDefault("shutdown.grace_period", "5s")

	ruleTTL, err := parseDuration(v, "rules.cache_ttl", "5m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid rule cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v, "assess.rate_window", "1m")
	if err != nil {
		return Config{}, fmt.Errorf("invalid assess rate window: %w", err)
	}

	grace, err := parseDuration(v, "shutdown.grace_period", "5s")
	if err != nil {
		return Config{}, fmt.Errorf("invalid shutdown grace period: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		RuleCacheTTL:        ruleTTL,
		EventChannel:        v.GetString("events.channel"),
		AssessRateLimit:     v.GetInt("assess.rate_limit"),
		AssessRateWindow:    rateWindow,
		SeedEnabled:         v.GetBool("seed.enabled"),
		SeedToken:           v.GetString("seed.token"),
		WeightSubjectCount:  v.GetFloat64("weights.subject_count"),
		WeightGradeAverage:  v.GetFloat64("weights.grade_average"),
		WeightCoreSubjects:  v.GetFloat64("weights.core_subjects"),
		ShutdownGracePeriod: grace,
		CORSOrigins:         splitList(v.GetString("cors.origins")),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if requireJWT && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AssessRateLimit <= 0 {
		cfg.AssessRateLimit = 30
	}

	if cfg.WeightSubjectCount < 0 || cfg.WeightGradeAverage < 0 || cfg.WeightCoreSubjects < 0 {
		return Config{}, fmt.Errorf("scoring weights must not be negative")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
