package router

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"thumbnail-service/internal/domain"
	"thumbnail-service/internal/endpoints"
	"thumbnail-service/internal/metrics"
	"thumbnail-service/internal/telemetry"
	"thumbnail-service/internal/thumbnail"
	"thumbnail-service/internal/util"
)

type Dependencies struct {
	Transformer thumbnail.Transformer
	Collector   *metrics.Collector
	Store       domain.SnapshotStore // nil disables /metrics/history
	Telemetry   *telemetry.Metrics
	Logger      *util.ServiceLogger
}

func NewRouter(deps Dependencies) *mux.Router {
	// Paths are looked up as sent. Uncleaned paths miss with a 404 instead of
	// being redirected.
	r := mux.NewRouter().SkipClean(true)

	addRoutes(r, deps)

	// Method mismatches are reported as plain misses, like unknown paths.
	r.NotFoundHandler = endpoints.NotFoundHandler()
	r.MethodNotAllowedHandler = endpoints.NotFoundHandler()

	r.Use(loggingMiddleware(deps.Logger))

	return r
}

func addRoutes(r *mux.Router, deps Dependencies) {

	uploadHandler := &endpoints.Upload{}
	uploadHandler.Init(deps.Transformer, deps.Collector, deps.Telemetry, deps.Logger)

	metricsHandler := &endpoints.Metrics{}
	metricsHandler.Init(deps.Collector, deps.Store, deps.Logger)

	staticHandler := &endpoints.Static{}

	r.PathPrefix("/upload").HandlerFunc(uploadHandler.UploadHandler).Methods("POST")

	r.Handle("/metrics/runtime", deps.Telemetry.Handler()).Methods("GET")
	r.HandleFunc("/metrics/history/{limit}/{offset}", metricsHandler.GetHistoryHandler).Methods("GET")
	r.HandleFunc("/metrics/history", metricsHandler.GetHistoryHandler).Methods("GET")
	r.HandleFunc("/metrics", metricsHandler.GetMetricsHandler).Methods("GET")

	r.PathPrefix("/").HandlerFunc(staticHandler.GetStaticHandler).Methods("GET")
}

func loggingMiddleware(logger *util.ServiceLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogEvent(util.LOG_LEVEL_INFO, fmt.Sprintf("Request: %s %s", r.Method, r.RequestURI))
			next.ServeHTTP(w, r)
		})
	}
}
