package sales

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes transaction endpoints.
type Handler struct {
	Svc            *Service
	DefaultDays    int
	DefaultPerPage int
	MaxPerPage     int
}

// Record stores a transaction from a submitted cart.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var in RecordInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	tx, err := h.Svc.Record(r.Context(), in)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Data(w, http.StatusCreated, tx)
}

// List returns a page of transactions for ?branchId=&from=&to=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r, h.Svc.now(), h.DefaultDays)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	defaultPerPage := h.DefaultPerPage
	if defaultPerPage <= 0 {
		defaultPerPage = 50
	}
	page, perPage := common.ParsePagination(r, defaultPerPage, h.MaxPerPage)
	f.Limit, f.Offset = perPage, common.Offset(page, perPage)

	result, err := h.Svc.List(r.Context(), f)
	if err != nil {
		common.WriteError(w, ToAppError(err))
		return
	}
	common.Paged(w, result.Items, common.Pagination{Page: page, PerPage: perPage, TotalItems: result.Total})
}

// ParseFilter reads branchId, from and to (RFC3339) from the query. Without
// both bounds the window is the last days days, or ?days= when given.
func ParseFilter(r *http.Request, now time.Time, days int) (Filter, error) {
	q := r.URL.Query()
	var f Filter
	if raw := strings.TrimSpace(q.Get("branchId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Filter{}, common.BadRequest("invalid branch id", err)
		}
		f.BranchID = id
	}

	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr != "" && toStr != "" {
		var err error
		if f.From, err = time.Parse(time.RFC3339, fromStr); err != nil {
			return Filter{}, common.BadRequest("invalid from date", err)
		}
		if f.To, err = time.Parse(time.RFC3339, toStr); err != nil {
			return Filter{}, common.BadRequest("invalid to date", err)
		}
		return f, nil
	}

	if days <= 0 {
		days = 30
	}
	days = common.PositiveInt(q.Get("days"), days)
	f.To = now
	f.From = now.AddDate(0, 0, -days)
	return f, nil
}
