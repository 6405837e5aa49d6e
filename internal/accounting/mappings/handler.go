package mappings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers config endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/config", h.get)
	r.Put("/config", h.update)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	cfg, err := h.service.GetConfig(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("get accounting config", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	if cfg == nil {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg.Response())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	var in ConfigUpdate
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	cfg, err := h.service.UpdateConfig(r.Context(), id.TenantID, in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, cfg.Response())
}
