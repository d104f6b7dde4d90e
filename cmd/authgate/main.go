package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/xwhep/authgate/internal/config"
	"github.com/xwhep/authgate/internal/gateway"
	"github.com/xwhep/authgate/internal/nonce"
	"github.com/xwhep/authgate/internal/provider"
	"github.com/xwhep/authgate/internal/provider/oidc"
	"github.com/xwhep/authgate/internal/server"
	"github.com/xwhep/authgate/internal/session"
	"github.com/xwhep/authgate/internal/store"
	"github.com/xwhep/authgate/internal/token"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "/etc/authgate/config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("authgate v%s\n", version)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	logger.Info("starting authgate", "version", version)

	backend, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	logger.Info("store initialized", "type", cfg.Store.Type)

	clock := clockwork.NewRealClock()

	verifier := token.NewVerifier(cfg.Auth.Issuer, []byte(cfg.Auth.SigningSecret), clock)
	nonceStore := nonce.NewStore(backend, clock)
	nonceValidator := nonce.NewValidator(nonceStore, clock, cfg.Auth.LoginTimeout)
	sessions := session.NewStore(backend, cfg.Server.HandshakeTTL)

	ctx := context.Background()
	providers := make(map[string]provider.Provider)
	redirectURL := strings.TrimRight(cfg.Server.BaseURL, "/") + server.CallbackPath

	for _, providerCfg := range cfg.Providers {
		p, err := oidc.New(ctx, providerCfg, redirectURL)
		if err != nil {
			return fmt.Errorf("failed to create provider %s: %w", providerCfg.ID, err)
		}

		providers[providerCfg.ID] = p
		logger.Info("provider initialized",
			"id", providerCfg.ID,
			"name", providerCfg.Name,
		)
	}

	gw := gateway.New(verifier, nonceValidator, sessions, providers, cfg.Server.TokenCookieName, logger)

	srv, err := server.New(*cfg, backend, gw, sessions, providers, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
