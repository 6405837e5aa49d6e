package app

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

const (
	// HeaderTenantID carries the tenant resolved by the upstream auth proxy.
	HeaderTenantID = "X-Tenant-ID"
	// HeaderUserID carries the acting user.
	HeaderUserID = "X-User-ID"
)

// IdentityResolver extracts the tenant and user for a request.
type IdentityResolver interface {
	Resolve(r *http.Request) (shared.Identity, error)
}

// HeaderIdentityResolver trusts identity headers set by the auth proxy in front of the service.
type HeaderIdentityResolver struct{}

// Resolve implements IdentityResolver. A request without tenant header yields ErrMissingIdentity.
func (HeaderIdentityResolver) Resolve(r *http.Request) (shared.Identity, error) {
	rawTenant := strings.TrimSpace(r.Header.Get(HeaderTenantID))
	if rawTenant == "" {
		return shared.Identity{}, shared.ErrMissingIdentity
	}
	tenantID, err := uuid.Parse(rawTenant)
	if err != nil || tenantID == uuid.Nil {
		return shared.Identity{}, shared.ErrInvalidIdentity
	}
	id := shared.Identity{TenantID: tenantID}
	if rawUser := strings.TrimSpace(r.Header.Get(HeaderUserID)); rawUser != "" {
		if id.UserID, err = uuid.Parse(rawUser); err != nil {
			return shared.Identity{}, shared.ErrInvalidIdentity
		}
	}
	return id, nil
}

// IdentityMiddleware stores the resolved identity in the request context. Requests without
// identity pass through so handlers answer 401 themselves; malformed identity is rejected here.
func IdentityMiddleware(resolver IdentityResolver) func(http.Handler) http.Handler {
	if resolver == nil {
		resolver = HeaderIdentityResolver{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r)
			switch {
			case err == nil:
				r = r.WithContext(shared.ContextWithIdentity(r.Context(), id))
			case errors.Is(err, shared.ErrMissingIdentity):
			default:
				httpx.RespondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
