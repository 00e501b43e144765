package endpoints

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"thumbnail-service/internal/metrics"
	"thumbnail-service/internal/multipart"
	"thumbnail-service/internal/telemetry"
	"thumbnail-service/internal/thumbnail"
	"thumbnail-service/internal/util"
)

const multipartFormData = "multipart/form-data"

type Upload struct {
	logger      *util.ServiceLogger
	transformer thumbnail.Transformer
	collector   *metrics.Collector
	telemetry   *telemetry.Metrics
}

func (u *Upload) Init(transformer thumbnail.Transformer, collector *metrics.Collector, tm *telemetry.Metrics, webSlogger *util.ServiceLogger) {
	u.transformer = transformer
	u.collector = collector
	u.telemetry = tm
	u.logger = webSlogger
}

// UploadHandler answers POST /upload*. Rejections before the transform are
// 400 with no body and are not recorded in the collector.
func (u *Upload) UploadHandler(w http.ResponseWriter, r *http.Request) {
	start := receivedAt(r)
	spec := thumbnail.ParseSpec(r.URL.Query())

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), multipartFormData) {
		u.reject(w, "invalid_content_type", ErrNotMultipart)
		return
	}

	boundary, err := multipart.BoundaryFromContentType(contentType)
	if err != nil {
		u.reject(w, "missing_boundary", err)
		return
	}

	body, err := readBody(r)
	if err != nil {
		u.reject(w, "unreadable_body", err)
		return
	}

	payload, err := multipart.Extract(body, boundary)
	if err != nil {
		u.reject(w, rejectionReason(err), err)
		return
	}

	processStart := time.Now()
	thumb, err := u.transformer.Transform(r.Context(), payload, spec.Width(), spec.Height(), spec.Format)
	processing := time.Since(processStart)
	if err != nil {
		u.logger.LogEvent(util.LOG_LEVEL_ERROR, "Upload processing error. Err -", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", spec.Format.ContentType())
	w.Header().Set("Access-Control-Allow-Origin", "*")

	u.collector.RecordRequest(time.Since(start).Microseconds(), processing.Microseconds())

	w.WriteHeader(http.StatusOK)
	w.Write(thumb)
}

func (u *Upload) reject(w http.ResponseWriter, reason string, err error) {
	u.logger.LogEvent(util.LOG_LEVEL_WARN, "Upload rejected. reason -", reason, "Err -", err)
	u.telemetry.UploadRejections.WithLabelValues(reason).Inc()
	w.WriteHeader(http.StatusBadRequest)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, multipart.ErrMissingBoundaryMarker):
		return "missing_boundary_marker"
	case errors.Is(err, multipart.ErrMissingHeaderTerminator):
		return "missing_header_terminator"
	case errors.Is(err, multipart.ErrMissingClosingBoundary):
		return "missing_closing_boundary"
	default:
		return "malformed_multipart"
	}
}
