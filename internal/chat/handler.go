package chat

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"forumhub/internal/apperr"
)

// Handler serves the chat history over HTTP: the durable fallback path for
// messages missed while offline.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// GetHistory handles GET /api/chat/messages?limit=&before=.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	var before *time.Time
	if v := r.URL.Query().Get("before"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid before timestamp", http.StatusBadRequest)
			return
		}
		before = &ts
	}

	messages, err := h.service.History(r.Context(), limit, before)
	if err != nil {
		http.Error(w, apperr.UserMessage(err), apperr.HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"messages": messages})
}
