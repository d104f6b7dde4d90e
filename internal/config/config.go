package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Auth      AuthConfig       `yaml:"auth"`
	Backend   BackendConfig    `yaml:"backend"`
	Store     StoreConfig      `yaml:"store"`
	Providers []ProviderConfig `yaml:"providers"`
	Logging   LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	BaseURL         string        `yaml:"base_url"`
	TokenCookieName string        `yaml:"token_cookie_name"`
	HandshakeCookie string        `yaml:"handshake_cookie_name"`
	CookieDomain    string        `yaml:"cookie_domain"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	CookieSameSite  string        `yaml:"cookie_same_site"`
	HandshakeTTL    time.Duration `yaml:"handshake_ttl"`
}

type AuthConfig struct {
	// Issuer a bearer token must carry to be accepted.
	Issuer string `yaml:"issuer"`
	// SigningSecret is the HMAC-SHA-256 key shared with the token authority.
	SigningSecret string `yaml:"signing_secret"`
	// LoginTimeout bounds how far a provider nonce's embedded timestamp may
	// drift from server time, and how long an admitted nonce stays recorded.
	LoginTimeout time.Duration `yaml:"login_timeout"`
}

type BackendConfig struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	PreserveHost bool          `yaml:"preserve_host"`
	// ClaimHeaders maps token claim names to the headers they are forwarded
	// under, e.g. name: X-Auth-Name.
	ClaimHeaders map[string]string `yaml:"claim_headers"`
}

type StoreConfig struct {
	Type  string       `yaml:"type"`
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Address    string `yaml:"address"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"pool_size"`
	MaxRetries int    `yaml:"max_retries"`
}

type ProviderConfig struct {
	ID   string      `yaml:"id"`
	Name string      `yaml:"name"`
	OIDC *OIDCConfig `yaml:"oidc,omitempty"`
}

type OIDCConfig struct {
	Issuer       string   `yaml:"issuer"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.setDefaults()
	cfg.loadSecretsFromEnv()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.TokenCookieName == "" {
		c.Server.TokenCookieName = "token"
	}
	if c.Server.HandshakeCookie == "" {
		c.Server.HandshakeCookie = "authgate-handshake"
	}
	if c.Server.CookieSameSite == "" {
		c.Server.CookieSameSite = "lax"
	}
	if c.Server.HandshakeTTL == 0 {
		c.Server.HandshakeTTL = 10 * time.Minute
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "xwhep"
	}
	if c.Auth.LoginTimeout == 0 {
		c.Auth.LoginTimeout = 5 * time.Minute
	}

	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}

	if c.Store.Type == "" {
		c.Store.Type = "memory"
	}

	if c.Store.Type == "redis" && c.Store.Redis != nil {
		if c.Store.Redis.PoolSize == 0 {
			c.Store.Redis.PoolSize = 10
		}
		if c.Store.Redis.MaxRetries == 0 {
			c.Store.Redis.MaxRetries = 3
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

func (c *Config) loadSecretsFromEnv() {
	if envSecret := os.Getenv("AUTHGATE_SIGNING_SECRET"); envSecret != "" {
		c.Auth.SigningSecret = envSecret
	}

	for i := range c.Providers {
		provider := &c.Providers[i]

		if provider.OIDC != nil {
			if envClientID := os.Getenv(fmt.Sprintf("%s_CLIENT_ID", provider.ID)); envClientID != "" {
				provider.OIDC.ClientID = envClientID
			}
			if envClientSecret := os.Getenv(fmt.Sprintf("%s_CLIENT_SECRET", provider.ID)); envClientSecret != "" {
				provider.OIDC.ClientSecret = envClientSecret
			}
		}
	}

	if c.Store.Type == "redis" && c.Store.Redis != nil {
		if envPassword := os.Getenv("REDIS_PASSWORD"); envPassword != "" {
			c.Store.Redis.Password = envPassword
		}
	}
}
