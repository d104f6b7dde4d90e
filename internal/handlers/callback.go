package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/xwhep/authgate/internal/config"
	"github.com/xwhep/authgate/internal/gateway"
	"github.com/xwhep/authgate/pkg/security"
)

// rejectedBody is what every failed admission looks like from the outside,
// whatever the actual reason was.
const rejectedBody = "Sign-on rejected. Please contact the administrator of this server."

// CallbackHandler receives the identity provider's response and runs it
// through the gateway: nonce admission, then identity resolution.
type CallbackHandler struct {
	cfg    config.Config
	gw     *gateway.Gateway
	logger *slog.Logger
}

func NewCallbackHandler(cfg config.Config, gw *gateway.Gateway, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		cfg:    cfg,
		gw:     gw,
		logger: logger,
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cfg.Server.HandshakeCookie)
	if err != nil {
		h.logger.Info("provider response without handshake cookie", "remote_addr", r.RemoteAddr)
		http.Error(w, rejectedBody, http.StatusUnauthorized)
		return
	}

	identity, err := h.gw.AdmitProviderResponse(r.Context(), r, cookie.Value)
	if err != nil {
		// Log the specific rejection, answer with the generic one.
		h.logger.Warn("provider response rejected",
			"handshake_id", cookie.Value,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, rejectedBody, http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, security.ClearHandshakeCookie(h.cfg.Server))

	h.logger.Info("sign-on successful",
		"subject", identity.Subject,
		"email", identity.Email,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(identity)
}
