package presence

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves presence lookups over HTTP: last-seen and status for users
// who are not currently connected.
type Handler struct {
	directory *Directory
}

func NewHandler(d *Directory) *Handler {
	return &Handler{directory: d}
}

// GetPresence handles GET /api/presence/{userID}.
func (h *Handler) GetPresence(w http.ResponseWriter, r *http.Request) {
	rec, err := h.directory.Presence(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}
