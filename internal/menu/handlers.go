package menu

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes menu endpoints.
type Handler struct {
	Svc            *Service
	DefaultPerPage int
	MaxPerPage     int
}

// ListByBranch returns a page of a branch's menu.
func (h *Handler) ListByBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := parseID(chi.URLParam(r, "branchID"), "invalid branch id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	defaultPerPage := h.DefaultPerPage
	if defaultPerPage <= 0 {
		defaultPerPage = 50
	}
	page, perPage := common.ParsePagination(r, defaultPerPage, h.MaxPerPage)
	result, err := h.Svc.ListByBranch(r.Context(), branchID, page, perPage)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Paged(w, result.Items, common.Pagination{Page: page, PerPage: perPage, TotalItems: result.Total})
}

// Get returns one item with its pricing matrix.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "invalid menu item id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Put creates or replaces an item and rebuilds its matrix.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "invalid menu item id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in SaveInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.Svc.Save(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, item)
}

// Breakdown returns the precomputed breakdown for ?orderType=&size=.
func (h *Handler) Breakdown(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"), "invalid menu item id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	rb, err := h.Svc.Breakdown(r.Context(), id, q.Get("orderType"), q.Get("size"))
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, rb)
}

func parseID(raw, message string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.BadRequest(message, err)
	}
	return id, nil
}
