package handlers

import (
	"net/http"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

type UserHandler struct {
	Service *services.UserService
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var input models.SignUpRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	user, err := h.Service.SignUp(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var input models.SignInRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	user, tokens, err := h.Service.SignIn(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.SetAvailabilityRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.Service.SetAvailability(r.Context(), user, input.IsAvailable); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_available": input.IsAvailable})
}

func (h *UserHandler) SetFCMToken(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.SetFCMTokenRequest
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.Service.SetFCMToken(r.Context(), user.ID, input.FCMToken); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
