package handler

import (
	"net/http"

	"github.com/young1lin/exa-bridge/internal/models"
)

// handleSearch handles POST /api/search. Missing fields take the CLI defaults.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := models.DefaultSearchQuery("")
	if err := decodeBody(w, r, &q); err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := h.search.Search(r.Context(), q)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
