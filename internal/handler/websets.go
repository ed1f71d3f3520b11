package handler

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/apperr"
	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/internal/websets"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

const (
	maxPageLimit    = 100
	minPollInterval = time.Second
	// largest whole number of seconds a time.Duration can hold
	maxDurationSeconds = float64(math.MaxInt64 / int64(time.Second))
)

type waitResponse struct {
	WebsetID       string              `json:"webset_id"`
	Status         models.WebsetStatus `json:"status"`
	Outcome        websets.Outcome     `json:"outcome"`
	TimedOut       bool                `json:"timed_out"`
	Polls          int                 `json:"polls"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
	Found          int                 `json:"found"`
	Webset         *models.Webset      `json:"webset"`
}

type itemsResponse struct {
	Items      []models.Item `json:"items"`
	Total      int           `json:"total"`
	WebsetID   string        `json:"webset_id"`
	HasMore    bool          `json:"has_more"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

type formattedResponse struct {
	Results  []models.OrderedRow `json:"results"`
	Columns  []models.Column     `json:"columns"`
	Total    int                 `json:"total"`
	WebsetID string              `json:"webset_id"`
	Status   models.WebsetStatus `json:"status"`
}

// handleCreateWebset handles POST /api/websets
func (h *Handler) handleCreateWebset(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWebsetRequest
	if err := decodeBody(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	for i := range req.Enrichments {
		if req.Enrichments[i].Format == "" {
			req.Enrichments[i].Format = models.FormatText
		}
	}
	if err := models.Validate(req); err != nil {
		handleError(w, r, err)
		return
	}

	ws, err := h.api.CreateWebset(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

// handleGetWebset handles GET /api/websets/{id}
func (h *Handler) handleGetWebset(w http.ResponseWriter, r *http.Request) {
	ws, err := h.api.GetWebset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// handleWaitWebset handles GET /api/websets/{id}/wait?timeout=&interval=
func (h *Handler) handleWaitWebset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := h.config.Poll.MaxWaitLimitDuration()
	timeout, err := secondsParam(r, "timeout", h.config.Poll.MaxWaitDuration(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	interval, err := secondsParam(r, "interval", h.config.Poll.IntervalDuration(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if interval < minPollInterval {
		handleError(w, r, apperr.NewValidation("interval", "must be at least 1 second"))
		return
	}

	res, err := h.poller.Wait(r.Context(), id, websets.Options{MaxWait: timeout, Interval: interval})
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, waitResponse{
		WebsetID:       res.WebsetID,
		Status:         res.Status,
		Outcome:        res.Outcome,
		TimedOut:       res.TimedOut(),
		Polls:          res.Polls,
		ElapsedSeconds: res.Elapsed.Seconds(),
		Found:          res.Found,
		Webset:         res.Webset,
	})
}

// handleListItems handles GET /api/websets/{id}/items?cursor=&limit=
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := h.config.Provider.PageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			handleError(w, r, apperr.NewValidation("limit", "must be an integer between 1 and 100"))
			return
		}
		limit = n
	}

	page, err := h.api.ListItems(r.Context(), id, r.URL.Query().Get("cursor"), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}

	items := page.Data
	if items == nil {
		items = []models.Item{}
	}
	writeJSON(w, http.StatusOK, itemsResponse{
		Items:      items,
		Total:      len(items),
		WebsetID:   id,
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
	})
}

// handleFormattedItems handles GET /api/websets/{id}/formatted. It collects
// every item whatever the webset status and flattens them.
func (h *Handler) handleFormattedItems(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ws, err := h.api.GetWebset(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	items, err := h.poller.Collect(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	table := websets.Flatten(items, websets.EnrichmentTitles(ws, nil))
	writeJSON(w, http.StatusOK, formattedResponse{
		Results:  table.OrderedRows(),
		Columns:  table.Columns,
		Total:    table.Len(),
		WebsetID: id,
		Status:   ws.Status,
	})
}

// secondsParam parses a positive, finite number of seconds from the query
// string. Values above limit are clamped to it; limit <= 0 means no limit.
func secondsParam(r *http.Request, name string, def, limit time.Duration) (time.Duration, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if limit > 0 && def > limit {
			return limit, nil
		}
		return def, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return 0, apperr.NewValidation(name, "must be a positive number of seconds")
	}

	ceiling := maxDurationSeconds
	if limit > 0 && limit.Seconds() < ceiling {
		ceiling = limit.Seconds()
	}
	if n > ceiling {
		logger.FromContext(r.Context()).Info("duration parameter clamped",
			zap.String("param", name),
			zap.String("requested", raw),
			zap.Float64("limit_seconds", ceiling),
		)
		n = ceiling
	}
	return time.Duration(n * float64(time.Second)), nil
}
