package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

func TestLoadConfigDefaultsAndEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LEDGER_ENTRY_PREFIX=CG\nCONFIG_CACHE_TTL=90s\n"), 0o600))
	t.Setenv("AUTOPOST_ASYNC", "false")

	cfg, err := LoadConfig(envFile)
	t.Cleanup(func() {
		_ = os.Unsetenv("LEDGER_ENTRY_PREFIX")
		_ = os.Unsetenv("CONFIG_CACHE_TTL")
	})
	require.NoError(t, err)
	require.Equal(t, "CG", cfg.LedgerEntryPrefix)
	require.Equal(t, 90*time.Second, cfg.ConfigCacheTTL)
	require.False(t, cfg.AutopostAsync)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "0 3 * * *", cfg.IntegrityCron)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigWithoutEnvFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, "AC", cfg.LedgerEntryPrefix)
}

func TestLoadConfigRejectsBlankPrefix(t *testing.T) {
	t.Setenv("LEDGER_ENTRY_PREFIX", "  ")
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestNewLoggerHonoursFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "shown", line["msg"])
}

func TestHeaderIdentityResolver(t *testing.T) {
	tenant, user := uuid.New(), uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderTenantID, tenant.String())
	req.Header.Set(HeaderUserID, user.String())

	id, err := HeaderIdentityResolver{}.Resolve(req)
	require.NoError(t, err)
	require.Equal(t, shared.Identity{TenantID: tenant, UserID: user}, id)

	req.Header.Set(HeaderUserID, "nope")
	_, err = HeaderIdentityResolver{}.Resolve(req)
	require.ErrorIs(t, err, shared.ErrInvalidIdentity)

	req.Header.Del(HeaderTenantID)
	_, err = HeaderIdentityResolver{}.Resolve(req)
	require.ErrorIs(t, err, shared.ErrMissingIdentity)
}

type whoami struct{}

func (whoami) MountRoutes(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		id, ok := httpx.Identity(w, r)
		if !ok {
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"tenant": id.TenantID.String()})
	})
}

func TestRouterResolvesIdentity(t *testing.T) {
	router := NewRouter(RouterParams{
		Config:     &Config{AppRequestTimeout: time.Second},
		Accounting: whoami{},
		Metrics:    observability.NewMetrics(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/accounting/whoami", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/accounting/whoami", nil)
	req.Header.Set(HeaderTenantID, "not-a-uuid")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	tenant := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/api/accounting/whoami", nil)
	req.Header.Set(HeaderTenantID, tenant.String())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), tenant.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), `odyssey_http_requests_total{code="200",resource="whoami",route="/api/accounting/whoami"} 1`)
}
