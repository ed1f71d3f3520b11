package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/young1lin/exa-bridge/internal/apperr"
	"github.com/young1lin/exa-bridge/internal/config"
	"github.com/young1lin/exa-bridge/internal/metrics"
	"github.com/young1lin/exa-bridge/internal/models"
	"github.com/young1lin/exa-bridge/internal/search"
	"github.com/young1lin/exa-bridge/internal/websets"
	"github.com/young1lin/exa-bridge/pkg/logger"
)

const maxRequestBody = 1 << 20

// Handler serves the search and webset API
type Handler struct {
	config *config.Config
	search *search.Service
	api    websets.WebsetAPI
	poller *websets.Poller
}

// NewHandler creates a new API handler
func NewHandler(cfg *config.Config, searchSvc *search.Service, api websets.WebsetAPI, poller *websets.Poller) *Handler {
	return &Handler{
		config: cfg,
		search: searchSvc,
		api:    api,
		poller: poller,
	}
}

// Router builds the HTTP routes
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(traceMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	if h.config.Metrics.Enabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", h.handleSearch)

		r.Post("/websets", h.handleCreateWebset)
		r.Get("/websets/{id}", h.handleGetWebset)
		r.Get("/websets/{id}/wait", h.handleWaitWebset)
		r.Get("/websets/{id}/items", h.handleListItems)
		r.Get("/websets/{id}/formatted", h.handleFormattedItems)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, r, http.StatusNotFound, "not_found", "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorStatus(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	return r
}

// traceMiddleware tags every request with a trace id and logs its completion
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		traceID := extractTraceID(r)
		if traceID == "" {
			traceID = generateTraceID()
		}
		r = r.WithContext(logger.ContextWithTraceID(r.Context(), traceID))
		w.Header().Set("X-Trace-ID", traceID)

		log := logger.WithTraceID(traceID)
		log.Info("request received",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.ObserveHTTP(route, status)

		log.Info("request completed",
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// decodeBody reads a JSON request body into v
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return apperr.NewValidation("body", "invalid JSON: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleError maps err onto the JSON error envelope
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	st := apperr.Classify(err)
	log := logger.FromContext(r.Context())

	fields := []zap.Field{
		zap.String("error_type", st.Type),
		zap.Int("status", st.HTTPStatus),
		zap.Error(err),
	}
	if st.HTTPStatus >= http.StatusInternalServerError {
		log.Error("request error", fields...)
	} else {
		log.Warn("request error", fields...)
	}

	detail := models.ErrorDetail{
		Type:    st.Type,
		Code:    string(st.Code),
		Message: st.Message,
	}
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		for _, f := range ve.Fields {
			detail.Fields = append(detail.Fields, models.FieldErrorDetail{Field: f.Field, Message: f.Message})
		}
	}
	writeJSON(w, st.HTTPStatus, models.ErrorResponse{Error: detail})
}

// writeErrorStatus writes an error that did not come from a typed error
func writeErrorStatus(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	logger.FromContext(r.Context()).Warn("request error",
		zap.String("error_type", errType),
		zap.String("message", message),
		zap.Int("status", status),
	)
	writeJSON(w, status, models.ErrorResponse{
		Error: models.ErrorDetail{Type: errType, Message: message},
	})
}

// extractTraceID extracts trace ID from various possible headers
func extractTraceID(r *http.Request) string {
	// Check common trace ID headers in order of preference
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
		"Trace-ID",
		"Request-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}

// generateTraceID generates a new trace ID
func generateTraceID() string {
	id := uuid.New()
	return id.String()[:16]
}
