package branch

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-resto/internal/common"
)

// Handler exposes branch tax profile endpoints.
type Handler struct {
	Svc *Service
}

// List returns every branch.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, branches)
}

// Get returns one branch.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	b, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, b)
}

// Put creates or replaces a branch tax profile.
func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var in UpsertInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	b, err := h.Svc.Upsert(r.Context(), id, in)
	if err != nil {
		common.WriteError(w, toAppError(err))
		return
	}
	common.Data(w, http.StatusOK, b)
}

// ParseID parses a branch identifier from a path or query value.
func ParseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.BadRequest("invalid branch id", err)
	}
	return id, nil
}
