package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"snapfeed/internal/feed"
	"snapfeed/internal/middleware"
	"snapfeed/internal/storage"
)

// APIHandler holds the state shared by every endpoint
type APIHandler struct {
	Store          storage.Store
	Feed           *feed.Service
	Sessions       *middleware.Sessions
	Logger         *slog.Logger
	MaxUploadBytes int64
}

// NewAPIHandler creates the controller
func NewAPIHandler(store storage.Store, feedSvc *feed.Service, sessions *middleware.Sessions, logger *slog.Logger, maxUploadBytes int64) *APIHandler {
	return &APIHandler{
		Store:          store,
		Feed:           feedSvc,
		Sessions:       sessions,
		Logger:         logger,
		MaxUploadBytes: maxUploadBytes,
	}
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("encoding response", "err", err)
	}
}
