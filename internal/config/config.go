package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	AuthSecret      string `mapstructure:"AUTH_SECRET"`
	AdminPIN        string `mapstructure:"ADMIN_PIN"`
	TokenTTLMinutes int    `mapstructure:"TOKEN_TTL_MINUTES"`

	ModelPath string `mapstructure:"MODEL_PATH"`

	ExtractAPIURL         string `mapstructure:"EXTRACT_API_URL"`
	ExtractAPIKey         string `mapstructure:"EXTRACT_API_KEY"`
	ExtractModel          string `mapstructure:"EXTRACT_MODEL"`
	ExtractTimeoutSeconds int    `mapstructure:"EXTRACT_TIMEOUT_SECONDS"`

	ConsultMinutesJunior int `mapstructure:"CONSULT_MINUTES_JUNIOR"`
	ConsultMinutesSenior int `mapstructure:"CONSULT_MINUTES_SENIOR"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("TOKEN_TTL_MINUTES", 720)
	v.SetDefault("EXTRACT_TIMEOUT_SECONDS", 10)
	v.SetDefault("CONSULT_MINUTES_JUNIOR", 15)
	v.SetDefault("CONSULT_MINUTES_SENIOR", 15)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("ADMIN_PIN")
	v.BindEnv("TOKEN_TTL_MINUTES")
	v.BindEnv("MODEL_PATH")
	v.BindEnv("EXTRACT_API_URL")
	v.BindEnv("EXTRACT_API_KEY")
	v.BindEnv("EXTRACT_MODEL")
	v.BindEnv("EXTRACT_TIMEOUT_SECONDS")
	v.BindEnv("CONSULT_MINUTES_JUNIOR")
	v.BindEnv("CONSULT_MINUTES_SENIOR")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// TokenTTL returns the session token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// ExtractTimeout returns the symptom extraction request timeout.
func (c *Config) ExtractTimeout() time.Duration {
	return time.Duration(c.ExtractTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is safe to run. Outside development
// the server refuses to start without a signing secret: every clinic
// deployment needs working logins.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required when ENV is not development")
	}
	if c.TokenTTLMinutes <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}
	if c.ConsultMinutesJunior <= 0 || c.ConsultMinutesSenior <= 0 {
		return fmt.Errorf("consultation minutes must be positive")
	}
	return nil
}
