package integration

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

// Publisher hands business events to the bridge. Publishing never fails from the caller's view.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// DirectPublisher runs the hooks inline, after the caller's own transaction committed.
type DirectPublisher struct {
	hooks *Hooks
}

// NewDirectPublisher wraps hooks as an in-process publisher.
func NewDirectPublisher(hooks *Hooks) *DirectPublisher {
	return &DirectPublisher{hooks: hooks}
}

// Publish dispatches evt synchronously; Dispatch logs and counts every outcome.
func (p *DirectPublisher) Publish(ctx context.Context, evt Event) {
	if p == nil || p.hooks == nil {
		return
	}
	_ = p.hooks.Dispatch(ctx, evt)
}

// Handler accepts events from business services running out of process.
type Handler struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewHandler constructs the event intake handler.
func NewHandler(logger *slog.Logger, publisher Publisher) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{publisher: publisher, logger: logger}
}

// MountRoutes registers the intake endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/events", h.publish)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.Identity(w, r)
	if !ok {
		return
	}
	var evt Event
	if err := httpx.DecodeJSON(r, &evt); err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	evt.TenantID = id.TenantID
	if _, err := derive(evt); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	h.publisher.Publish(r.Context(), evt)
	w.WriteHeader(http.StatusAccepted)
}
