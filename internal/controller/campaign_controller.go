// internal/controller/campaign_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/mailleopard-backend/internal/handler"
	"github.com/unclebandit/mailleopard-backend/internal/logger"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Logger          *logger.Logger
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		ContactEmail string `json:"contact_email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handler.BadRequest(w, "invalid body")
		return
	}
	if body.ContactEmail == "" {
		handler.BadRequest(w, "contact_email is required")
		return
	}

	preview, err := c.CampaignService.RenderPreview(r.Context(), name, body.ContactEmail)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, preview)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name         string   `json:"name"`
		TemplateName string   `json:"template_name"`
		ContactLists []string `json:"contact_lists"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		handler.BadRequest(w, "invalid body")
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), body.Name, body.TemplateName, body.ContactLists)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	handler.WriteJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	// Default values if missing
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(r.Context(), page, pageSize, status)
	if err != nil {
		handler.WriteError(w, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination, // already contains total_count, total_pages, page, page_size
	})
}

// SendCampaign dispatches inline and returns the counts, or with ?async=true
// hands the run to a worker and answers 202.
func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var body struct {
		Attachments []string `json:"attachments"`
	}
	// an empty body means no attachments
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		handler.BadRequest(w, "invalid body")
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		if err := c.CampaignService.EnqueueSend(r.Context(), name, body.Attachments); err != nil {
			handler.WriteError(w, err)
			return
		}
		handler.WriteJSON(w, http.StatusAccepted, map[string]string{
			"campaign": name,
			"status":   "queued",
		})
		return
	}

	// a client that hangs up must not abandon a half-mailed campaign
	result, err := c.CampaignService.SendCampaign(context.WithoutCancel(r.Context()), name, body.Attachments)
	if err != nil {
		if c.Logger != nil && handler.StatusFor(err) == http.StatusInternalServerError {
			c.Logger.Error().Err(err).Str("campaign", name).Msg("campaign send failed")
		}
		handler.WriteError(w, err)
		return
	}

	handler.WriteJSON(w, http.StatusOK, result)
}
