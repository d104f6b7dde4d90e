package server

import (
	"net/http"

	"github.com/xwhep/authgate/internal/handlers"
	"github.com/xwhep/authgate/internal/middleware"
	"github.com/xwhep/authgate/internal/proxy"
)

// CallbackPath is where identity providers return the user. The provider
// response nonce arrives here as a query parameter.
const CallbackPath = "/jwt"

func (s *Server) setupRoutes() (http.Handler, error) {
	mux := http.NewServeMux()

	authMiddleware := middleware.NewAuthMiddleware(s.gw, s.logger)

	loginHandler := handlers.NewLoginHandler(s.cfg, s.sessions, s.providers, s.logger)
	callbackHandler := handlers.NewCallbackHandler(s.cfg, s.gw, s.logger)
	healthHandler := handlers.NewHealthHandler(s.cfg, s.store, s.providers, s.logger)

	reverseProxy, err := proxy.NewReverseProxy(s.cfg.Backend, s.logger)
	if err != nil {
		return nil, err
	}

	mux.HandleFunc(CallbackPath, callbackHandler.ServeHTTP)

	for id := range s.providers {
		mux.HandleFunc("/auth/"+id+"/login", loginHandler.HandleLogin(id))
	}

	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	mux.Handle("/", authMiddleware.RequireToken(reverseProxy))

	handler := middleware.Recovery(s.logger)(
		middleware.Logging(s.logger)(
			addSecurityHeaders(mux),
		),
	)

	return handler, nil
}

func addSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
