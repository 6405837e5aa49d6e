package accounts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

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

// MountRoutes registers chart of accounts endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/setup", h.setup)
	r.Get("/accounts", h.list)
	r.Patch("/accounts/{id}", h.setActive)
}

type accountResponse struct {
	ID              uuid.UUID   `json:"id"`
	Code            string      `json:"code"`
	Name            string      `json:"name"`
	Type            AccountType `json:"type"`
	Nature          Nature      `json:"nature"`
	ParentID        *uuid.UUID  `json:"parentId"`
	Level           int         `json:"level"`
	IsSystemAccount bool        `json:"isSystemAccount"`
	IsBankAccount   bool        `json:"isBankAccount"`
	IsActive        bool        `json:"isActive"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func toResponse(a Account) accountResponse {
	return accountResponse{
		ID: a.ID, Code: a.Code, Name: a.Name, Type: a.Type, Nature: a.Nature, ParentID: a.ParentID,
		Level: a.Level, IsSystemAccount: a.IsSystemAccount, IsBankAccount: a.IsBankAccount,
		IsActive: a.IsActive, UpdatedAt: a.UpdatedAt,
	}
}

func (h *Handler) setup(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	result, err := h.service.SetupChartOfAccounts(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Warn("setup chart of accounts", slog.String("tenant_id", id.TenantID.String()), slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	accounts, err := h.service.List(r.Context(), id.TenantID)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	out := make([]accountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toResponse(a))
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	accountID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var body struct {
		IsActive bool `json:"isActive"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	account, err := h.service.SetActive(r.Context(), id.TenantID, accountID, body.IsActive)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(account))
}
