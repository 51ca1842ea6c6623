package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shuttleclub/backend/internal/services"
)

type LedgerHandler struct {
	service *services.HistoryService
	loc     *time.Location
}

func NewLedgerHandler(service *services.HistoryService, loc *time.Location) *LedgerHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerHandler{service: service, loc: loc}
}

// MyTransactions lists the caller's own ledger entries.
func (h *LedgerHandler) MyTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	dates, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	page, limit := pageQuery(r)
	result, err := h.service.MemberHistory(r.Context(), actor.MemberID, dates, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// MemberTransactions lists the ledger entries of the member in the path.
func (h *LedgerHandler) MemberTransactions(w http.ResponseWriter, r *http.Request) {
	dates, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	page, limit := pageQuery(r)
	result, err := h.service.MemberHistory(r.Context(), chi.URLParam(r, "id"), dates, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LedgerHandler) GroupTransactions(w http.ResponseWriter, r *http.Request) {
	dates, ok := h.dateRange(w, r)
	if !ok {
		return
	}

	page, limit := pageQuery(r)
	result, err := h.service.GroupHistory(r.Context(), r.URL.Query().Get("groupId"), dates, page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *LedgerHandler) MemberBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.service.MemberBalances(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

// dateRange reads startDate and endDate as RFC 3339 timestamps or plain
// dates in the club timezone. A plain endDate covers the whole day.
func (h *LedgerHandler) dateRange(w http.ResponseWriter, r *http.Request) (services.DateRange, bool) {
	var dates services.DateRange
	query := r.URL.Query()

	if v := query.Get("startDate"); v != "" {
		t, _, err := h.parseDate(v)
		if err != nil {
			services.SendErrorResponse(w, "Invalid startDate", http.StatusBadRequest, map[string]string{"startDate": err.Error()})
			return dates, false
		}
		dates.Start = &t
	}
	if v := query.Get("endDate"); v != "" {
		t, dayOnly, err := h.parseDate(v)
		if err != nil {
			services.SendErrorResponse(w, "Invalid endDate", http.StatusBadRequest, map[string]string{"endDate": err.Error()})
			return dates, false
		}
		if dayOnly {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		dates.End = &t
	}
	return dates, true
}

func (h *LedgerHandler) parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, h.loc)
	return t, true, err
}
