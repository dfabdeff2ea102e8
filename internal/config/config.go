package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL    string          `mapstructure:"database_url"`
	ServerPort     string          `mapstructure:"server_port"`
	JWTSecret      string          `mapstructure:"jwt_secret"`
	CronSecret     string          `mapstructure:"cron_secret"`
	AllowedOrigins []string        `mapstructure:"allowed_origins"`
	RateLimit      RateLimitConfig `mapstructure:"rate_limit"`
	Push           PushConfig      `mapstructure:"push"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type PushConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// Load reads the configuration from a YAML file, with environment
// variables taking precedence, and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("Error reading config file: %v", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.DatabaseURL == "" {
		config.DatabaseURL = v.GetString("DATABASE_URL")
	}
	if config.JWTSecret == "" {
		config.JWTSecret = v.GetString("JWT_SECRET")
	}
	if config.CronSecret == "" {
		config.CronSecret = v.GetString("CRON_SECRET")
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if config.RateLimit.RequestsPerMinute == 0 {
		config.RateLimit.RequestsPerMinute = 120
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file or environment")
	}

	return &config
}
