package handlers

import (
	"net/http"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

type ServiceRequestHandler struct {
	Service *services.ServiceRequestService
}

func (h *ServiceRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.CreateServiceRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}
	req, err := h.Service.Create(r.Context(), user, input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *ServiceRequestHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqs, err := h.Service.FindMine(r.Context(), user.ID, r.URL.Query().Get("status"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *ServiceRequestHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, err := h.Service.FindByIDForUser(r.Context(), r.URL.Query().Get(":id"), user)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ServiceRequestHandler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	available, err := h.Service.FindAvailableForProvider(r.Context(), user)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, available)
}

func (h *ServiceRequestHandler) GetAssigned(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	reqs, err := h.Service.FindAssignedForProvider(r.Context(), user.ID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *ServiceRequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Accept(r.Context(), r.URL.Query().Get(":id"), user)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ServiceRequestHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Start(r.Context(), r.URL.Query().Get(":id"), user)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ServiceRequestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Complete(r.Context(), r.URL.Query().Get(":id"), user)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ServiceRequestHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.CancelServiceRequestInput
	if !decodeJSON(w, r, &input) {
		return
	}
	req, err := h.Service.Cancel(r.Context(), r.URL.Query().Get(":id"), user, input.CancellationReason)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *ServiceRequestHandler) Rate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input models.CreateRatingInput
	if !decodeJSON(w, r, &input) {
		return
	}
	rating, err := h.Service.Rate(r.Context(), r.URL.Query().Get(":id"), user, input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

func (h *ServiceRequestHandler) GetProviderRatings(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.GetProviderRatings(r.Context(), r.URL.Query().Get(":provider_id"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
