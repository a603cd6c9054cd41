// internal/handler/campaign_handler.go
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

// CampaignHandler serves campaign detail reads
type CampaignHandler struct {
	Service *service.CampaignService
	Logger  *logger.Logger
}

// GetCampaignHandlerWithStats returns a campaign's counters and its email log breakdown
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	details, err := h.Service.GetCampaignStats(r.Context(), name)
	if err != nil {
		if h.Logger != nil && StatusFor(err) == http.StatusInternalServerError {
			h.Logger.Error().Err(err).Str("campaign", name).Msg("failed to fetch campaign")
		}
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, details)
}
