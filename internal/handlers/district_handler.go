package handlers

import (
	"net/http"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/models"
	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

type DistrictHandler struct {
	Service *services.DistrictService
}

func (h *DistrictHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	districts, err := h.Service.ListActive(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, districts)
}

func (h *DistrictHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	district, err := h.Service.Create(r.Context(), user, input.Name)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, district)
}

func (h *DistrictHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var input struct {
		IsActive bool `json:"is_active"`
	}
	if !decodeJSON(w, r, &input) {
		return
	}
	if err := h.Service.SetActive(r.Context(), user, r.URL.Query().Get(":id"), input.IsActive); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DistrictHandler) CreatePricingRule(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var rule models.PricingRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	rule.DistrictID = r.URL.Query().Get(":id")
	rule.IsActive = true
	created, err := h.Service.CreatePricingRule(r.Context(), user, rule)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *DistrictHandler) UpdatePricingRule(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var rule models.PricingRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	rule.ID = r.URL.Query().Get(":rule_id")
	if err := h.Service.UpdatePricingRule(r.Context(), user, rule); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}
