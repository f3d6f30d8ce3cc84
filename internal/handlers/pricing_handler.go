package handlers

import (
	"net/http"
	"strconv"

	"github.com/CarlosSprekelsen/Marketplace-Evelyn/internal/services"
)

type PricingHandler struct {
	Service *services.PricingService
}

func (h *PricingHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	districtID := r.URL.Query().Get("district_id")
	if districtID == "" {
		http.Error(w, "district_id is required", http.StatusBadRequest)
		return
	}
	hours, err := strconv.Atoi(r.URL.Query().Get("hours"))
	if err != nil || hours <= 0 {
		http.Error(w, "hours must be a positive integer", http.StatusBadRequest)
		return
	}
	quote, err := h.Service.GetQuote(r.Context(), districtID, hours)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}
