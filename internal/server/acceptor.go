package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"thumbnail-service/internal/telemetry"
	"thumbnail-service/internal/util"
)

const (
	acceptBackoffMin = 5 * time.Millisecond
	acceptBackoffMax = time.Second
)

type AcceptorConfig struct {
	// MaxSessions bounds concurrently served connections. Zero means unbounded.
	MaxSessions int
}

// Acceptor owns the listening socket and hands each accepted connection to
// its own Session goroutine.
type Acceptor struct {
	session   *Session
	cfg       AcceptorConfig
	logger    *util.ServiceLogger
	telemetry *telemetry.Metrics

	listener net.Listener
	slots    *semaphore.Weighted

	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}

	activeSessions int64
	sessionWg      sync.WaitGroup
	closeOnce      sync.Once
}

func NewAcceptor(session *Session, cfg AcceptorConfig, logger *util.ServiceLogger, tm *telemetry.Metrics) *Acceptor {
	a := &Acceptor{
		session:   session,
		cfg:       cfg,
		logger:    logger,
		telemetry: tm,
	}
	if cfg.MaxSessions > 0 {
		a.slots = semaphore.NewWeighted(int64(cfg.MaxSessions))
	}
	return a
}

// Start binds bindAddress:port with address reuse enabled and begins
// accepting in the background. Bind failures are returned.
func (a *Acceptor) Start(bindAddress string, port int) error {
	address := net.JoinHostPort(bindAddress, strconv.Itoa(port))

	lc := net.ListenConfig{Control: reuseAddrControl}
	ln, err := lc.Listen(context.Background(), "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	a.listener = ln
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.loopDone = make(chan struct{})

	a.logger.LogEvent(util.LOG_LEVEL_INFO, "Listening on", ln.Addr().String())

	go a.acceptLoop()

	return nil
}

// Addr returns the bound address, or nil before Start.
func (a *Acceptor) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

func (a *Acceptor) ActiveSessions() int64 {
	return atomic.LoadInt64(&a.activeSessions)
}

func (a *Acceptor) acceptLoop() {
	defer close(a.loopDone)

	var backoff time.Duration
	for {
		if a.slots != nil {
			if err := a.slots.Acquire(a.ctx, 1); err != nil {
				return
			}
		}

		conn, err := a.listener.Accept()
		if err != nil {
			a.releaseSlot()

			if a.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}

			a.telemetry.AcceptErrors.Inc()
			a.logger.LogEvent(util.LOG_LEVEL_ERROR, "Accept error. Err -", err)

			if backoff == 0 {
				backoff = acceptBackoffMin
			} else if backoff *= 2; backoff > acceptBackoffMax {
				backoff = acceptBackoffMax
			}
			select {
			case <-time.After(backoff):
			case <-a.ctx.Done():
				return
			}
			continue
		}
		backoff = 0

		a.telemetry.ConnectionsAccepted.Inc()
		atomic.AddInt64(&a.activeSessions, 1)
		a.telemetry.ActiveSessions.Inc()
		a.sessionWg.Add(1)

		go a.handleConn(conn)
	}
}

func (a *Acceptor) handleConn(conn net.Conn) {
	defer func() {
		atomic.AddInt64(&a.activeSessions, -1)
		a.telemetry.ActiveSessions.Dec()
		a.releaseSlot()
		a.sessionWg.Done()
	}()

	a.session.Serve(conn)
}

func (a *Acceptor) releaseSlot() {
	if a.slots != nil {
		a.slots.Release(1)
	}
}

// Stop closes the listener and waits for in-flight sessions until ctx is
// done. Sessions still running at that point are abandoned and reported in
// the returned error.
func (a *Acceptor) Stop(ctx context.Context) error {
	if a.listener == nil {
		return nil
	}

	a.closeOnce.Do(func() {
		a.cancel()
		a.listener.Close()
	})
	<-a.loopDone

	done := make(chan struct{})
	go func() {
		a.sessionWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.LogEvent(util.LOG_LEVEL_INFO, "Acceptor stopped gracefully")
		return nil
	case <-ctx.Done():
		active := a.ActiveSessions()
		a.logger.LogEvent(util.LOG_LEVEL_WARN, "Acceptor stop timed out. active sessions -", active)
		return fmt.Errorf("abandoned %d active sessions: %w", active, ctx.Err())
	}
}
