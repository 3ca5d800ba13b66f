package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env     string
	Port    string
	GinMode string

	DBDriver   string
	DBDSN      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	SessionSecret string

	JWTSecret        string
	AccessTokenTTL   time.Duration
	SecretKey        string
	CORSOrigin       string
	RateLimitRPS     float64
	RateLimitBurst   int
	UsernameCacheTTL time.Duration

	GitHubAPIURL        string
	GitHubDefaultBranch string
	GitHubFanOutLimit   int

	ZoomAccountID    string
	ZoomClientID     string
	ZoomClientSecret string
	ZoomAPIURL       string
	ZoomTokenURL     string

	OpenAIAPIKey string
}

var defaults = map[string]any{
	"APP_ENV":               "dev",
	"PORT":                  "5000",
	"GIN_MODE":              "debug",
	"DB_DRIVER":             "postgres",
	"DATABASE_DSN":          "",
	"DB_HOST":               "localhost",
	"DB_PORT":               "5432",
	"DB_USER":               "teamchat",
	"DB_PASSWORD":           "teamchat",
	"DB_NAME":               "teamchat",
	"REDIS_ADDR":            "localhost:6379",
	"REDIS_PASSWORD":        "",
	"SESSION_SECRET":        "default-secret-key-change-me",
	"JWT_SECRET":            "dev-jwt-secret-change-me",
	"ACCESS_TOKEN_TTL":      "720h",
	"SECRET_KEY":            "",
	"CORS_ORIGIN":           "http://localhost:3000",
	"RATE_LIMIT_RPS":        20.0,
	"RATE_LIMIT_BURST":      40,
	"USERNAME_CACHE_TTL":    "0s",
	"GITHUB_API_URL":        "https://api.github.com/",
	"GITHUB_DEFAULT_BRANCH": "main",
	"GITHUB_FANOUT_LIMIT":   8,
	"ZOOM_ACCOUNT_ID":       "",
	"ZOOM_CLIENT_ID":        "",
	"ZOOM_CLIENT_SECRET":    "",
	"ZOOM_API_URL":          "https://api.zoom.us/v2",
	"ZOOM_TOKEN_URL":        "https://zoom.us/oauth/token",
	"OPENAI_API_KEY":        "",
}

// Load reads .env (if present), an optional config.yaml and the process
// environment, in increasing order of precedence.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	cfg, err := FromViper(v)
	if err != nil {
		panic("config error: " + err.Error())
	}
	return cfg
}

// FromViper builds a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{
		Env:     v.GetString("APP_ENV"),
		Port:    v.GetString("PORT"),
		GinMode: v.GetString("GIN_MODE"),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:      v.GetString("DATABASE_DSN"),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		SessionSecret: v.GetString("SESSION_SECRET"),

		JWTSecret:        v.GetString("JWT_SECRET"),
		AccessTokenTTL:   v.GetDuration("ACCESS_TOKEN_TTL"),
		SecretKey:        v.GetString("SECRET_KEY"),
		CORSOrigin:       v.GetString("CORS_ORIGIN"),
		RateLimitRPS:     v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:   v.GetInt("RATE_LIMIT_BURST"),
		UsernameCacheTTL: v.GetDuration("USERNAME_CACHE_TTL"),

		GitHubAPIURL:        v.GetString("GITHUB_API_URL"),
		GitHubDefaultBranch: v.GetString("GITHUB_DEFAULT_BRANCH"),
		GitHubFanOutLimit:   v.GetInt("GITHUB_FANOUT_LIMIT"),

		ZoomAccountID:    v.GetString("ZOOM_ACCOUNT_ID"),
		ZoomClientID:     v.GetString("ZOOM_CLIENT_ID"),
		ZoomClientSecret: v.GetString("ZOOM_CLIENT_SECRET"),
		ZoomAPIURL:       v.GetString("ZOOM_API_URL"),
		ZoomTokenURL:     v.GetString("ZOOM_TOKEN_URL"),

		OpenAIAPIKey: v.GetString("OPENAI_API_KEY"),
	}

	if cfg.GitHubFanOutLimit <= 0 {
		cfg.GitHubFanOutLimit = 1
	}
	if !strings.HasSuffix(cfg.GitHubAPIURL, "/") {
		cfg.GitHubAPIURL += "/"
	}
	return cfg, nil
}

// DSN returns the configured DSN, or builds one for the selected driver.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	case "sqlite":
		return c.DBName + ".db"
	default:
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
	}
}

// ZoomEnabled reports whether meeting credentials are configured.
func (c *Config) ZoomEnabled() bool {
	return c.ZoomAccountID != "" && c.ZoomClientID != "" && c.ZoomClientSecret != ""
}
