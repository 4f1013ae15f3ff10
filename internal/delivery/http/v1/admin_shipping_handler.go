package v1

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"shiprate-backend/internal/domain"
	"shiprate-backend/pkg/utils"
)

type AdminShippingHandler struct {
	history   domain.HistoryUsecase
	reference domain.ReferenceAdminUsecase
}

func NewAdminShippingHandler(history domain.HistoryUsecase, reference domain.ReferenceAdminUsecase) *AdminShippingHandler {
	return &AdminShippingHandler{history: history, reference: reference}
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain date used as
// an upper bound covers the whole day.
func parseDate(raw string, upper bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a date (YYYY-MM-DD or RFC 3339)", domain.ErrInvalidInput, raw)
	}
	if upper {
		t = t.Add(24 * time.Hour)
	}
	return t, nil
}

func parseID(raw, name string) (int32, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return int32(v), nil
}

// ListHistory serves the calculation audit trail.
//
//	GET /api/v1/admin/shipping/history?product_id=&zone_id=&policy_id=&from=&to=&page=&limit=
func (h *AdminShippingHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		filter = domain.CalculationLogFilter{ProductID: q.Get("product_id")}
		err    error
	)
	if filter.ZoneID, err = parseID(q.Get("zone_id"), "zone_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.PolicyID, err = parseID(q.Get("policy_id"), "policy_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.From, err = parseDate(q.Get("from"), false); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = parseDate(q.Get("to"), true); err != nil {
		writeError(w, r, err)
		return
	}

	page := utils.ParseInt(q.Get("page"), 1)
	limit := utils.ParseInt(q.Get("limit"), 0)

	entries, pagination, err := h.history.ListHistory(r.Context(), filter, page, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, entries, pagination)
}

type exportRequest struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// ExportHistory uploads the entries of a date range and returns the file URL.
func (h *AdminShippingHandler) ExportHistory(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		writeError(w, r, err)
		return
	}

	from, err := parseDate(req.From, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := parseDate(req.To, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	url, err := h.history.ExportHistory(r.Context(), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, map[string]string{"url": url}, nil)
}

func (h *AdminShippingHandler) ZoneConflicts(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.reference.ZoneConflicts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, conflicts, map[string]int{"total": len(conflicts)})
}

func (h *AdminShippingHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	n := h.reference.FlushCache()
	utils.WriteSuccess(w, http.StatusOK, map[string]int{"flushed": n}, nil)
}
