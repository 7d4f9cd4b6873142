package main

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	MongoURI    string          `mapstructure:"mongo_uri"`
	MongoDB     string          `mapstructure:"mongo_db"`
	JWTSecret   string          `mapstructure:"jwt_secret"`
	JWTTTL      time.Duration   `mapstructure:"jwt_ttl"`
	Port        string          `mapstructure:"port"`
	Env         string          `mapstructure:"env"`
	CORSOrigins []string        `mapstructure:"cors_origins"`
	AI          AIConfig        `mapstructure:"ai"`
	OpenWeather WeatherConfig   `mapstructure:"openweather"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Log         LogConfig       `mapstructure:"log"`
}

// AIConfig points at the remote recommendation model. An empty base URL
// disables remote calls and every request is answered from the tables.
type AIConfig struct {
	APIBaseURL    string        `mapstructure:"api_base_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	HealthTimeout time.Duration `mapstructure:"health_timeout"`
	TablesFile    string        `mapstructure:"tables_file"` // optional rule tables YAML
}

type WeatherConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig allows Requests per Window for each client IP.
type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func (c *Config) isDevelopment() bool { return c.Env == "development" }

// loadConfig reads .env, an optional config.yaml and the environment.
// Nested keys map to upper-case env names with dots replaced: ai.timeout is AI_TIMEOUT.
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mongo_uri", "mongodb://localhost:27017")
	v.SetDefault("mongo_db", "cropadvisor")
	v.SetDefault("jwt_secret", "change_me")
	v.SetDefault("jwt_ttl", 7*24*time.Hour)
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")
	v.SetDefault("cors_origins", []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("ai.api_base_url", "http://localhost:8000")
	v.SetDefault("ai.timeout", 30*time.Second)
	v.SetDefault("ai.health_timeout", 5*time.Second)
	v.SetDefault("ai.tables_file", "")
	v.SetDefault("openweather.api_key", "")
	v.SetDefault("openweather.base_url", "https://api.openweathermap.org")
	v.SetDefault("openweather.timeout", 5*time.Second)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !c.isDevelopment() && c.JWTSecret == "change_me" {
		return eris.New("config: JWT_SECRET must be set outside development")
	}
	if c.RateLimit.Requests < 1 || c.RateLimit.Window <= 0 {
		return eris.New("config: rate limit needs positive requests and window")
	}
	return nil
}

// initLogger installs the global zap logger.
func initLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
