package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/mailleopard-backend/internal/service"
)

type ListHandler struct {
	Service *service.ListService
}

func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	l, err := h.Service.CreateContactList(r.Context(), payload.Name, payload.Description)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

func (h *ListHandler) AddContacts(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Emails []string `json:"emails"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		BadRequest(w, "invalid request body: "+err.Error())
		return
	}
	n, err := h.Service.AddContactsToList(r.Context(), chi.URLParam(r, "name"), payload.Emails)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"added": n})
}

func (h *ListHandler) GetContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Service.GetContactListContacts(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"data": contacts})
}
