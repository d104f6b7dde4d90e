package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.validateAuth(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.validateBackend(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.validateStore(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.validateProviders(); err != nil {
		return fmt.Errorf("providers config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Server.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if _, err := url.Parse(c.Server.BaseURL); err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}

	sameSite := strings.ToLower(c.Server.CookieSameSite)
	if sameSite != "lax" && sameSite != "strict" && sameSite != "none" {
		return fmt.Errorf("invalid cookie_same_site: %s (must be lax, strict, or none)", c.Server.CookieSameSite)
	}

	if c.Server.HandshakeTTL < time.Minute {
		return fmt.Errorf("handshake_ttl must be at least 1 minute")
	}

	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}

	if c.Auth.SigningSecret == "" {
		return fmt.Errorf("signing_secret is required (set AUTHGATE_SIGNING_SECRET)")
	}

	if c.Auth.LoginTimeout <= 0 {
		return fmt.Errorf("login_timeout must be positive")
	}

	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("url is required")
	}

	backendURL, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if backendURL.Scheme != "http" && backendURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https")
	}

	return nil
}

func (c *Config) validateStore() error {
	switch c.Store.Type {
	case "memory":
		return nil
	case "redis":
		if c.Store.Redis == nil {
			return fmt.Errorf("redis section is required for redis store type")
		}
		if c.Store.Redis.Address == "" {
			return fmt.Errorf("redis address is required")
		}
		return nil
	default:
		return fmt.Errorf("unsupported store type: %s", c.Store.Type)
	}
}

func (c *Config) validateProviders() error {
	seen := make(map[string]bool)

	for _, provider := range c.Providers {
		if provider.ID == "" {
			return fmt.Errorf("provider id is required")
		}

		if seen[provider.ID] {
			return fmt.Errorf("duplicate provider id: %s", provider.ID)
		}
		seen[provider.ID] = true

		if provider.OIDC == nil {
			return fmt.Errorf("provider %s: oidc section is required", provider.ID)
		}

		if provider.OIDC.Issuer == "" {
			return fmt.Errorf("provider %s: issuer is required", provider.ID)
		}
		if provider.OIDC.ClientID == "" {
			return fmt.Errorf("provider %s: client_id is required", provider.ID)
		}
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" {
		return fmt.Errorf("invalid level: %s", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("invalid format: %s", c.Logging.Format)
	}

	return nil
}
