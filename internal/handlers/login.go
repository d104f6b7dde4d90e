package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xwhep/authgate/internal/config"
	"github.com/xwhep/authgate/internal/provider"
	"github.com/xwhep/authgate/internal/session"
	"github.com/xwhep/authgate/pkg/security"
)

// LoginHandler starts a provider handshake: it asks the provider for a
// redirect, parks the handshake artifacts (shared secret, endpoint alias)
// under a fresh id, and sends the user off.
type LoginHandler struct {
	cfg       config.Config
	sessions  *session.Store
	providers map[string]provider.Provider
	logger    *slog.Logger
}

func NewLoginHandler(cfg config.Config, sessions *session.Store, providers map[string]provider.Provider, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		cfg:       cfg,
		sessions:  sessions,
		providers: providers,
		logger:    logger,
	}
}

func (h *LoginHandler) HandleLogin(providerID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, exists := h.providers[providerID]
		if !exists {
			h.logger.Error("provider not found", "provider_id", providerID)
			http.Error(w, "Invalid provider", http.StatusBadRequest)
			return
		}

		handshakeID := uuid.New().String()

		redirect, err := p.BeginLogin(r.Context(), handshakeID)
		if err != nil {
			h.logger.Error("failed to begin login", "provider", providerID, "error", err)
			http.Error(w, "Login unavailable", http.StatusBadGateway)
			return
		}

		hs := &session.Handshake{
			ID:         handshakeID,
			ProviderID: providerID,
			Secret:     redirect.Secret,
			Alias:      redirect.Alias,
			CreatedAt:  time.Now(),
		}

		if err := h.sessions.Save(r.Context(), hs); err != nil {
			h.logger.Error("failed to save handshake", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, security.CreateHandshakeCookie(h.cfg.Server, handshakeID, h.cfg.Server.HandshakeTTL))

		h.logger.Info("login started",
			"provider", providerID,
			"handshake_id", handshakeID,
		)

		http.Redirect(w, r, redirect.URL, http.StatusFound)
	}
}
