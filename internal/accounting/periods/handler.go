package periods

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
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

// MountRoutes registers period endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/periods", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Post("/{id}/close", h.close)
	})
}

type createRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Notes     string `json:"notes"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	start, err := shared.ParseDate(req.StartDate)
	if err != nil {
		httpx.RespondError(w, r, fmt.Errorf("%w: startDate: %v", httpx.ErrBadRequest, err))
		return
	}
	end, err := shared.ParseDate(req.EndDate)
	if err != nil {
		httpx.RespondError(w, r, fmt.Errorf("%w: endDate: %v", httpx.ErrBadRequest, err))
		return
	}
	period, err := h.service.Create(r.Context(), id.TenantID, CreateInput{Name: req.Name, StartDate: start, EndDate: end, Notes: req.Notes})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, period.Response())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	periods, err := h.service.List(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("list periods", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	out := make([]PeriodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Response())
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	periodID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	period, err := h.service.Get(r.Context(), id.TenantID, periodID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, period.Response())
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	periodID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	period, err := h.service.Close(r.Context(), id.TenantID, periodID, id.UserID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.logger.Info("period closed", slog.String("tenant_id", id.TenantID.String()), slog.String("period_id", periodID.String()))
	httpx.JSON(w, http.StatusOK, period.Response())
}
