package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"thumbnail-service/internal/endpoints"
	"thumbnail-service/internal/telemetry"
	"thumbnail-service/internal/util"
)

const DEFAULT_MAX_BODY_BYTES = 20 * 1024 * 1024

var ErrBodyTooLarge = errors.New("request body exceeds limit")

type SessionConfig struct {
	MaxBodyBytes int64
	// Zero disables the deadline.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Session serves exactly one HTTP request per connection.
type Session struct {
	handler   http.Handler
	cfg       SessionConfig
	logger    *util.ServiceLogger
	telemetry *telemetry.Metrics
}

func NewSession(handler http.Handler, cfg SessionConfig, logger *util.ServiceLogger, tm *telemetry.Metrics) *Session {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DEFAULT_MAX_BODY_BYTES
	}
	return &Session{handler: handler, cfg: cfg, logger: logger, telemetry: tm}
}

// Serve reads one request from conn, routes it, writes the response and
// closes the connection. Framing errors close the connection without a
// response. Nothing escapes Serve, including handler panics.
func (s *Session) Serve(conn net.Conn) {
	id := uuid.NewString()

	defer conn.Close()
	defer closeWrite(conn)
	defer func() {
		if r := recover(); r != nil {
			s.telemetry.SessionErrors.WithLabelValues(telemetry.StagePanic).Inc()
			s.logger.LogEvent(util.LOG_LEVEL_ERROR, "Session error. session -", id, "panic -", r)
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	req, err := s.readRequest(conn)
	if err != nil {
		s.telemetry.SessionErrors.WithLabelValues(telemetry.StageRead).Inc()
		s.logger.LogEvent(util.LOG_LEVEL_WARN, "Session error. session -", id, "remote -", conn.RemoteAddr(), "Err -", err)
		return
	}
	req = req.WithContext(endpoints.WithReceivedAt(context.Background(), time.Now()))

	rw := newResponseBuffer()
	s.handler.ServeHTTP(rw, req)

	if s.cfg.WriteTimeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if err := rw.writeTo(conn, req); err != nil {
		s.telemetry.SessionErrors.WithLabelValues(telemetry.StageWrite).Inc()
		s.logger.LogEvent(util.LOG_LEVEL_WARN, "Session error. session -", id, "write failed. Err -", err)
		return
	}
	s.logger.LogEvent(util.LOG_LEVEL_DEBUG, "Session complete. session -", id, "status -", rw.status)
}

func (s *Session) readRequest(conn net.Conn) (*http.Request, error) {
	req, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return nil, fmt.Errorf("reading request: %w", err)
	}
	if req.ContentLength > s.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("content length %d: %w", req.ContentLength, ErrBodyTooLarge)
	}

	if strings.EqualFold(req.Header.Get("Expect"), "100-continue") && req.ProtoAtLeast(1, 1) {
		if _, err := io.WriteString(conn, "HTTP/1.1 100 Continue\r\n\r\n"); err != nil {
			return nil, fmt.Errorf("writing 100 continue: %w", err)
		}
	}

	body, err := io.ReadAll(io.LimitReader(req.Body, s.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > s.cfg.MaxBodyBytes {
		return nil, ErrBodyTooLarge
	}

	req.Body = endpoints.NewRequestBody(body)
	req.RemoteAddr = conn.RemoteAddr().String()
	return req, nil
}

func closeWrite(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
}
