package handlers

import (
	"net/http"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

// AdminHandler groups the privileged operations behind the admin auth chain.
type AdminHandler struct {
	Requests *services.ServiceRequestService
	Users    *services.UserService
}

func (h *AdminHandler) GetAllRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Requests.FindAllForAdmin(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *AdminHandler) SetRequestStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.SetRequestStatusInput
	if !decodeJSON(w, r, &input) {
		return
	}
	req, err := h.Requests.AdminSetStatus(r.Context(), r.URL.Query().Get(":id"), admin, input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AdminHandler) SetUserVerified(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		IsVerified bool `json:"is_verified"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.Users.SetVerified(r.Context(), admin, r.URL.Query().Get(":id"), input.IsVerified); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetUserBlocked(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		IsBlocked bool `json:"is_blocked"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.Users.SetBlocked(r.Context(), admin, r.URL.Query().Get(":id"), input.IsBlocked); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
