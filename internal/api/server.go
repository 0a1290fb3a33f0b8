package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fraszczakszymon/dfp-query-tool/internal/config"
	"github.com/fraszczakszymon/dfp-query-tool/internal/lineitem"
	"github.com/fraszczakszymon/dfp-query-tool/internal/middleware"
	"github.com/fraszczakszymon/dfp-query-tool/internal/models"
	"github.com/fraszczakszymon/dfp-query-tool/internal/observability"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger    *zap.Logger
	LineItems *lineitem.Service
	Metrics   observability.MetricsRegistry
	Config    config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, svc *lineitem.Service, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:    logger,
		LineItems: svc,
		Metrics:   metrics,
		Config:    cfg,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(s.Logger))

	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/line-items", s.CreateLineItem).Methods(http.MethodPost)
	apiRouter.HandleFunc("/line-items/{id:[0-9]+}", s.GetLineItem).Methods(http.MethodGet)
	apiRouter.HandleFunc("/line-items/{id:[0-9]+}/targeting", s.AddTargeting).Methods(http.MethodPost)
	apiRouter.HandleFunc("/line-items/{id:[0-9]+}/targeting", s.RemoveTargeting).Methods(http.MethodDelete)
	apiRouter.HandleFunc("/orders/{orderId:[0-9]+}/line-items", s.ListLineItems).Methods(http.MethodGet)

	return r
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps the error taxonomy to HTTP statuses: validation 400,
// targeting resolution 422, not found 404, anything remote 502.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) int {
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var ve *models.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: ve.Error(), Field: ve.Field})
		return http.StatusBadRequest
	}
	var re *models.ResolutionError
	if errors.As(err, &re) {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: re.Error()})
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "line item not found"})
		return http.StatusNotFound
	}

	logger.Error("remote operation failed", zap.Error(err))
	writeJSON(w, http.StatusBadGateway, errorBody{Error: err.Error()})
	return http.StatusBadGateway
}
