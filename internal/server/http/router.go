package http

import (
	"net/http"

	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig lists the collaborators of the HTTP API.
type RouterConfig struct {
	Validator KeyValidator
	Users     UserService
	Pinger    Pinger
	Gatherer  prometheus.Gatherer
	Metrics   *Metrics
	Logger    logging.Logger
}

// NewRouter builds the HTTP API. /health and /metrics are open; everything
// under /api requires a valid API key.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(AccessLog(cfg.Logger, cfg.Metrics))

	r.Handle("/health", healthHandler(cfg.Pinger)).Methods(http.MethodGet)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// API keys are checked before API routes are matched, so a caller
	// without a key gets 401 for unknown paths and methods too.
	api := mux.NewRouter()
	api.Use(recordRoute)
	NewUserHandler(cfg.Users).Register(api.PathPrefix("/api/User").Subrouter())
	r.PathPrefix("/api/").Handler(APIKeyMiddleware(cfg.Validator, cfg.Logger)(api))

	return r
}
