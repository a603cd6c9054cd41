// internal/handler/contact_handler.go
package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/mailleopard-backend/internal/model"
	"github.com/unclebandit/mailleopard-backend/internal/service"
)

// ContactHandler serves contact CRUD and CSV import/export
type ContactHandler struct {
	Service *service.ContactService
}

func (h *ContactHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var c model.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := h.Service.AddContact(r.Context(), &c); err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, c)
}

func (h *ContactHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Service.ListContacts(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"data": contacts})
}

func (h *ContactHandler) GetContact(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.GetContact(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (h *ContactHandler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	var patch model.ContactPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	c, err := h.Service.UpdateContact(r.Context(), chi.URLParam(r, "email"), patch)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (h *ContactHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteContact(r.Context(), chi.URLParam(r, "email")); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportContacts reads a CSV body; ?map=Column:field,... picks the columns.
func (h *ContactHandler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	mapping, err := service.ParseFieldMapping(r.URL.Query().Get("map"))
	if err != nil {
		WriteError(w, err)
		return
	}
	n, err := h.Service.ImportContacts(r.Context(), r.Body, mapping)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *ContactHandler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	list := r.URL.Query().Get("list")
	filename := "contacts.csv"
	if list != "" {
		filename = list + ".csv"
	}
	// buffer through the service first so a missing list still gets a JSON 404
	var buf bytes.Buffer
	if _, err := h.Service.ExportContacts(r.Context(), &buf, list); err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
