package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		Driver string
		DSN    string
	}
	OIDC struct {
		Issuer       string
		ClientID     string
		ClientSecret string
		RedirectURL  string
	}
	DataService struct {
		URL          string
		ClientID     string
		ClientSecret string
		TokenURL     string
	}
	Redis struct {
		URL string
	}
	Log struct {
		Level  string
		Format string
	}
	AdminEmail      string
	DefaultRole     string
	SessionLifetime time.Duration
	InsecureCookies bool
}

// UseRemoteDataService reports whether user data is proxied to an upstream service.
func (c *Config) UseRemoteDataService() bool {
	return c.DataService.URL != ""
}

// UseRedis reports whether auth-state events fan out through Redis.
func (c *Config) UseRedis() bool {
	return c.Redis.URL != ""
}

// Load reads config from an optional .env file, the environment (DESK_ prefix)
// and an optional campaign-desk.yaml.
func Load() (*Config, error) {
	_ = godotenv.Load() // optional .env file

	v := viper.New()
	v.SetEnvPrefix("DESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigName("campaign-desk")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional config file

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("session.lifetime", "720h")
	v.SetDefault("default_role", "influencer")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	cfg := &Config{}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.DB.Driver = v.GetString("db.driver")
	cfg.DB.DSN = v.GetString("db.dsn")
	cfg.OIDC.Issuer = v.GetString("oidc.issuer")
	cfg.OIDC.ClientID = v.GetString("oidc.client_id")
	cfg.OIDC.ClientSecret = v.GetString("oidc.client_secret")
	cfg.OIDC.RedirectURL = v.GetString("oidc.redirect_url")
	cfg.DataService.URL = strings.TrimRight(v.GetString("dataservice.url"), "/")
	cfg.DataService.ClientID = v.GetString("dataservice.client_id")
	cfg.DataService.ClientSecret = v.GetString("dataservice.client_secret")
	cfg.DataService.TokenURL = v.GetString("dataservice.token_url")
	cfg.Redis.URL = v.GetString("redis.url")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.AdminEmail = v.GetString("admin_email")
	cfg.DefaultRole = v.GetString("default_role")
	cfg.InsecureCookies = v.GetBool("insecure_cookies")

	lifetime, err := time.ParseDuration(v.GetString("session.lifetime"))
	if err != nil {
		return nil, fmt.Errorf("invalid DESK_SESSION_LIFETIME: %w", err)
	}
	cfg.SessionLifetime = lifetime

	if cfg.DB.Driver == "" {
		return nil, fmt.Errorf("DESK_DB_DRIVER is required (sqlite3, mysql, postgres)")
	}
	if cfg.DB.DSN == "" {
		return nil, fmt.Errorf("DESK_DB_DSN is required")
	}
	if cfg.OIDC.Issuer == "" {
		return nil, fmt.Errorf("DESK_OIDC_ISSUER is required")
	}
	if cfg.OIDC.ClientID == "" {
		return nil, fmt.Errorf("DESK_OIDC_CLIENT_ID is required")
	}
	if cfg.OIDC.ClientSecret == "" {
		return nil, fmt.Errorf("DESK_OIDC_CLIENT_SECRET is required")
	}
	if cfg.OIDC.RedirectURL == "" {
		return nil, fmt.Errorf("DESK_OIDC_REDIRECT_URL is required")
	}
	if cfg.DataService.ClientID != "" && cfg.DataService.TokenURL == "" {
		return nil, fmt.Errorf("DESK_DATASERVICE_TOKEN_URL is required when DESK_DATASERVICE_CLIENT_ID is set")
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "console" {
		return nil, fmt.Errorf("invalid DESK_LOG_FORMAT %q: must be json or console", cfg.Log.Format)
	}

	return cfg, nil
}
