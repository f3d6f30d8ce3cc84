package handlers

import (
	"net/http"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

type RecurringRequestHandler struct {
	Service *services.RecurringRequestService
}

func (h *RecurringRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.CreateRecurringRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}
	rec, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *RecurringRequestHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	recs, err := h.Service.FindMine(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *RecurringRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.Service.Cancel(r.Context(), r.URL.Query().Get(":id"), user); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
