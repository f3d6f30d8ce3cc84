package handlers

import (
	"net/http"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

type UserAddressHandler struct {
	Service *services.UserAddressService
}

func (h *UserAddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.CreateUserAddressInput
	if !decodeJSON(w, r, &input) {
		return
	}
	addr, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, addr)
}

func (h *UserAddressHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	addrs, err := h.Service.ListMine(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addrs)
}
