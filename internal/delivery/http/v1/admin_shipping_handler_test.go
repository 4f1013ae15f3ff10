package v1

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/utils"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHistory struct {
	filter     domain.CalculationLogFilter
	page       int
	limit      int
	from, to   time.Time
	entries    []domain.CalculationLogEntry
	exportURL  string
	err        error
	listCalled bool
}

func (f *fakeHistory) ListHistory(ctx context.Context, filter domain.CalculationLogFilter, page, limit int) ([]domain.CalculationLogEntry, domain.Pagination, error) {
	f.listCalled = true
	f.filter, f.page, f.limit = filter, page, limit
	if f.err != nil {
		return nil, domain.Pagination{}, f.err
	}
	return f.entries, domain.NewPagination(page, 50, int64(len(f.entries))), nil
}

func (f *fakeHistory) ExportHistory(ctx context.Context, from, to time.Time) (string, error) {
	f.from, f.to = from, to
	if f.err != nil {
		return "", f.err
	}
	return f.exportURL, nil
}

type fakeReference struct {
	conflicts []domain.ZoneConflict
	flushed   int
}

func (f *fakeReference) ZoneConflicts(ctx context.Context) ([]domain.ZoneConflict, error) {
	return f.conflicts, nil
}

func (f *fakeReference) FlushCache() int {
	f.flushed++
	return 12
}

func newAdminMux(h *fakeHistory, ref *fakeReference) *http.ServeMux {
	mux := http.NewServeMux()
	RegisterRoutes(mux, NewShippingHandler(nil, nil, 100), NewReferenceHandler(&stubReferenceRepo{}), NewAdminShippingHandler(h, ref))
	return mux
}

func adminRequest(t *testing.T, method, target, body, role string) *http.Request {
	t.Helper()
	utils.SetSecret("test-secret")
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if role != "" {
		token, err := utils.GenerateJWT("u-1", "ops@example.com", role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	mux := newAdminMux(&fakeHistory{}, &fakeReference{})

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{name: "anonymous", role: "", wantStatus: http.StatusUnauthorized},
		{name: "non-admin", role: "customer", wantStatus: http.StatusForbidden},
		{name: "admin", role: domain.RoleAdmin, wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, adminRequest(t, http.MethodGet, "/api/v1/admin/shipping/zones/conflicts", "", tt.role))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAdminShippingHandler_ListHistory(t *testing.T) {
	h := &fakeHistory{entries: []domain.CalculationLogEntry{{ID: 1, ProductID: "p-1"}}}
	mux := newAdminMux(h, &fakeReference{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, adminRequest(t, http.MethodGet,
		"/api/v1/admin/shipping/history?product_id=p-1&zone_id=3&policy_id=10&from=2026-03-01&to=2026-03-31&page=2&limit=20", "", domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "p-1", h.filter.ProductID)
	assert.Equal(t, int32(3), h.filter.ZoneID)
	assert.Equal(t, int32(10), h.filter.PolicyID)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), h.filter.From)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), h.filter.To, "plain end date covers the whole day")
	assert.Equal(t, 2, h.page)
	assert.Equal(t, 20, h.limit)

	env := decodeEnvelope(t, rec)
	var entries []domain.CalculationLogEntry
	require.NoError(t, json.Unmarshal(env.Data, &entries))
	assert.Len(t, entries, 1)

	var p domain.Pagination
	require.NoError(t, json.Unmarshal(env.Meta, &p))
	assert.Equal(t, int64(1), p.TotalItems)
}

func TestAdminShippingHandler_ListHistory_BadQuery(t *testing.T) {
	for _, q := range []string{"zone_id=abc", "policy_id=-4", "from=yesterday", "to=2026-13-01"} {
		t.Run(q, func(t *testing.T) {
			h := &fakeHistory{}
			rec := httptest.NewRecorder()
			newAdminMux(h, &fakeReference{}).ServeHTTP(rec, adminRequest(t, http.MethodGet, "/api/v1/admin/shipping/history?"+q, "", domain.RoleAdmin))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, h.listCalled)
		})
	}
}

func TestAdminShippingHandler_ExportHistory(t *testing.T) {
	h := &fakeHistory{exportURL: "https://reports.example.com/reports/x.json"}
	rec := httptest.NewRecorder()
	newAdminMux(h, &fakeReference{}).ServeHTTP(rec, adminRequest(t, http.MethodPost,
		"/api/v1/admin/shipping/history/export", `{"from":"2026-03-01","to":"2026-03-01T18:00:00Z"}`, domain.RoleAdmin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data map[string]string
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.Equal(t, h.exportURL, data["url"])
	assert.Equal(t, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC), h.to.UTC())
}

func TestAdminShippingHandler_ExportHistory_NotConfigured(t *testing.T) {
	h := &fakeHistory{err: fmt.Errorf("history export: %w", domain.ErrNotConfigured)}
	rec := httptest.NewRecorder()
	newAdminMux(h, &fakeReference{}).ServeHTTP(rec, adminRequest(t, http.MethodPost,
		"/api/v1/admin/shipping/history/export", `{"from":"2026-03-01","to":"2026-03-02"}`, domain.RoleAdmin))

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, codeNotConfigured, env.Error.Code)
	assert.Equal(t, "history export: not configured", env.Error.Message)
}

func TestAdminShippingHandler_ZoneConflictsAndFlush(t *testing.T) {
	ref := &fakeReference{conflicts: []domain.ZoneConflict{{Country: "US", ZoneIDs: []int32{2, 3}, ZoneNames: []string{"North America", "Rest of World"}}}}
	mux := newAdminMux(&fakeHistory{}, ref)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, adminRequest(t, http.MethodGet, "/api/v1/admin/shipping/zones/conflicts", "", domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)

	var conflicts []domain.ZoneConflict
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &conflicts))
	require.Len(t, conflicts, 1)
	assert.Equal(t, "US", conflicts[0].Country)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, adminRequest(t, http.MethodPost, "/api/v1/admin/shipping/cache/flush", "", domain.RoleAdmin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ref.flushed)
	assert.Contains(t, rec.Body.String(), `"flushed":12`)
}
