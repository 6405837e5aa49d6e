package journals

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	internalShared "github.com/odyssey-erp/odyssey-ledger/internal/shared"
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	entries, err := h.service.List(r.Context(), id.TenantID, filter)
	if err != nil {
		h.logger.Error("list journals", slog.Any("error", err))
		httpx.RespondError(w, r, err)
		return
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Response())
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	entryID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	entry, err := h.service.Get(r.Context(), id.TenantID, entryID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry.Response())
}

type createRequest struct {
	Date        string       `json:"date"`
	Description string       `json:"description"`
	PeriodID    *string      `json:"periodId"`
	Refs        DocumentRefs `json:"refs"`
	Lines       []LineInput  `json:"lines"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	date, err := internalShared.ParseDate(req.Date)
	if err != nil {
		httpx.RespondError(w, r, fmt.Errorf("%w: date: %v", httpx.ErrBadRequest, err))
		return
	}
	in := CreateInput{Date: date, Description: req.Description, Refs: req.Refs, Lines: req.Lines}
	if req.PeriodID != nil && *req.PeriodID != "" {
		periodID, err := parseUUID(*req.PeriodID, "periodId")
		if err != nil {
			httpx.RespondError(w, r, err)
			return
		}
		in.PeriodID = &periodID
	}
	entry, err := h.service.Create(r.Context(), id.TenantID, id.UserID, in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	h.logger.Info("journal entry created", slog.String("tenant_id", id.TenantID.String()), slog.String("number", entry.EntryNumber))
	httpx.JSON(w, http.StatusCreated, entry.Response())
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	entryID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	entry, err := h.service.Post(r.Context(), id.TenantID, entryID, id.UserID)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry.Response())
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	entryID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	entry, err := h.service.Void(r.Context(), id.TenantID, entryID, id.UserID, body.Reason)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry.Response())
}

func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	entryID, err := httpx.PathUUID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var body struct {
		Date        string `json:"date"`
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	in := ReverseInput{Description: body.Description}
	if body.Date != "" {
		date, err := internalShared.ParseDate(body.Date)
		if err != nil {
			httpx.RespondError(w, r, fmt.Errorf("%w: date: %v", httpx.ErrBadRequest, err))
			return
		}
		in.Date = &date
	}
	entry, err := h.service.Reverse(r.Context(), id.TenantID, entryID, id.UserID, in)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry.Response())
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status")), Source: Source(q.Get("source"))}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := q.Get(key); raw != "" {
			t, err := internalShared.ParseDate(raw)
			if err != nil {
				return ListFilter{}, fmt.Errorf("%w: %s: %v", httpx.ErrBadRequest, key, err)
			}
			*dst = &t
		}
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	filter.Page = internalShared.NewPage(limit, offset)
	return filter, nil
}

func parseUUID(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a uuid", httpx.ErrBadRequest, name)
	}
	return id, nil
}
