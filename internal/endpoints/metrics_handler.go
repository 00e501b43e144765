package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"thumbnail-service/internal/domain"
	"thumbnail-service/internal/metrics"
	"thumbnail-service/internal/util"

	"github.com/gorilla/mux"
)

type Metrics struct {
	Response  APIResponse
	logger    *util.ServiceLogger
	collector *metrics.Collector
	store     domain.SnapshotStore
}

// Init wires the handler. store may be nil when history is disabled.
func (m *Metrics) Init(collector *metrics.Collector, store domain.SnapshotStore, webSlogger *util.ServiceLogger) {
	m.collector = collector
	m.store = store
	m.logger = webSlogger
}

func (m *Metrics) GetMetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := m.collector.WriteTo(w); err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while writing metrics. Err -", err)
	}
}

// GetHistoryHandler lists persisted snapshots. limit and offset come from the
// path, start and end (unix seconds) from the query string.
func (m *Metrics) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	if m.store == nil {
		m.Response.WriteErrorResponseWithStatusCode(w, ErrHistoryDisabled, http.StatusNotFound)
		return
	}

	routeParamValue := mux.Vars(r)

	limit, err := intParam(routeParamValue["limit"])
	if err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting limit from URL. Err - ", err)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}

	offset, err := intParam(routeParamValue["offset"])
	if err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting offset from URL. Err - ", err)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}

	query := r.URL.Query()
	startTime, err := int64Param(query.Get("start"))
	if err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting start from query. Err - ", err)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}
	endTime, err := int64Param(query.Get("end"))
	if err != nil {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "While getting end from query. Err - ", err)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidParameters, http.StatusBadRequest)
		return
	}

	if startTime == 0 {
		startTime = time.Now().Add(-24 * time.Hour).Unix()
	}
	if endTime == 0 {
		endTime = time.Now().Unix()
	}

	if startTime > endTime {
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Given startTime is greater than endTime. startTime - ", startTime, " endTime - ", endTime)
		m.Response.WriteErrorResponseWithStatusCode(w, ErrInvalidTimeRange, http.StatusBadRequest)
		return
	}

	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	snapshots, err := m.store.GetSnapshots(r.Context(), startTime, endTime, limit, offset)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.LogEvent(util.LOG_LEVEL_WARN, "Context cancelled")
			m.Response.WriteErrorResponseWithStatusCode(w, ErrRequestCancelled, http.StatusRequestTimeout)
			return
		}
		m.logger.LogEvent(util.LOG_LEVEL_ERROR, "Occured while GetSnapshots(). Err - ", err)
		m.Response.WriteErrorResponse(w, err)
		return
	}

	if len(snapshots) == 0 {
		m.logger.LogEvent(util.LOG_LEVEL_WARN, "Insufficient snapshot data")
		m.Response.WriteErrorResponseWithStatusCode(w, ErrNoSnapshotsAvailable, http.StatusNotFound)
		return
	}

	m.Response.WriteResultResponse(w, snapshots)
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func int64Param(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
