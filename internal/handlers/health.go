package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/xwhep/authgate/internal/config"
	"github.com/xwhep/authgate/internal/provider"
	"github.com/xwhep/authgate/internal/store"
)

type HealthHandler struct {
	cfg       config.Config
	store     store.Store
	providers map[string]provider.Provider
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(cfg config.Config, st store.Store, providers map[string]provider.Provider, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		store:     st,
		providers: providers,
		logger:    logger,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Store     StoreHealth       `json:"store"`
	Backend   BackendHealth     `json:"backend"`
	Providers map[string]string `json:"providers"`
}

type StoreHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type BackendHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(h.startTime).String(),
		Providers: make(map[string]string),
	}

	response.Store.Type = h.cfg.Store.Type
	if err := h.store.Set(ctx, "health:check", []byte("ok"), 1*time.Minute); err != nil {
		response.Store.Status = "error"
		response.Status = "degraded"
		h.logger.Warn("store health check failed", "error", err)
	} else {
		response.Store.Status = "connected"
		h.store.Delete(ctx, "health:check")
	}

	response.Backend.URL = h.cfg.Backend.URL
	backendResp, err := http.Get(h.cfg.Backend.URL)
	if err != nil {
		response.Backend.Status = "unreachable"
		response.Status = "degraded"
	} else {
		backendResp.Body.Close()
		response.Backend.Status = "reachable"
	}

	for id, p := range h.providers {
		response.Providers[id] = p.Name()
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}
