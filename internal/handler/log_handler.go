package handler

import (
	"net/http"
	"strconv"

	"github.com/unclebandit/mailleopard-backend/internal/service"
)

type LogHandler struct {
	Service *service.LogService
}

// GetLogs returns ?limit= entries (default 100), newest first, optionally ?status= filtered.
func (h *LogHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}
	logs, err := h.Service.GetEmailLogs(r.Context(), limit, r.URL.Query().Get("status"))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"data": logs})
}

// CleanupLogs deletes entries older than ?days= (default 30).
func (h *LogHandler) CleanupLogs(w http.ResponseWriter, r *http.Request) {
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid days")
			return
		}
		days = n
	}
	deleted, err := h.Service.CleanupOldLogs(r.Context(), days)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
