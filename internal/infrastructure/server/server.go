// Package server implements the TCP front of the command protocol.
//
// All command execution is single-threaded. Each connection gets a reader
// goroutine, but every parsed line funnels into one dispatch goroutine that
// alone touches the parser, the executor and the store. No locks, no
// concurrent mutation; one slow command delays every session.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/taskhub/core/internal/application/executor"
	"github.com/taskhub/core/internal/infrastructure/config"
	"github.com/taskhub/core/internal/infrastructure/logger"
	"github.com/taskhub/core/internal/infrastructure/metrics"
	"github.com/taskhub/core/internal/protocol"
)

// request is one unit of work for the dispatch goroutine. closed marks an
// EOF/error notification instead of a command line.
type request struct {
	sessionID int64
	line      string
	reply     chan string
	closed    bool
}

// Server accepts client connections and serializes their commands through a
// single dispatcher.
type Server struct {
	cfg      config.ServerConfig
	log      *logger.Logger
	executor *executor.Executor
	metrics  *metrics.Metrics

	listener net.Listener
	requests chan request
	nextID   atomic.Int64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates a server. Start must be called before it serves anything.
func New(cfg config.ServerConfig, exec *executor.Executor, m *metrics.Metrics, log *logger.Logger) *Server {
	return &Server{
		cfg:      cfg,
		log:      log.WithComponent("server"),
		executor: exec,
		metrics:  m,
		requests: make(chan request),
		done:     make(chan struct{}),
	}
}

// Start binds the listen address and launches the accept and dispatch loops.
// It returns once the server is accepting connections.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return err
	}
	s.listener = listener

	ctx, s.cancel = context.WithCancel(ctx)

	go s.dispatchLoop(ctx)
	go s.acceptLoop(ctx)

	s.log.Infow("server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound listen address. Only valid after Start.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Shutdown stops accepting, wakes the dispatcher, and returns. In-flight
// connections are not drained.
func (s *Server) Shutdown() {
	s.log.Info("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
	if s.listener != nil {
		s.listener.Close()
	}
	<-s.done
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Warnw("accept failed", "error", err)
			continue
		}

		sessionID := s.nextID.Add(1)
		s.metrics.ConnectionsTotal.Inc()
		s.metrics.ActiveConnections.Inc()
		s.log.Infow("client connected", "session_id", sessionID, "remote", conn.RemoteAddr().String())

		go s.handleConn(ctx, conn, sessionID)
	}
}

// handleConn reads one command per read into a fixed-size buffer. There is no
// framing: anything past the buffer truncates silently, and anything read is
// treated as exactly one command.
func (s *Server) handleConn(ctx context.Context, conn net.Conn, sessionID int64) {
	log := s.log.WithSession(sessionID)
	defer func() {
		conn.Close()
		s.metrics.ActiveConnections.Dec()
		s.notifyClosed(ctx, sessionID)
		log.Info("client disconnected")
	}()

	buf := make([]byte, s.cfg.BufferSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) && !errors.Is(err, io.EOF) {
				log.Warnw("read failed", "error", err)
			}
			return
		}

		line := string(buf[:n])
		if strings.TrimSpace(line) == "" {
			continue
		}

		reply, ok := s.submit(ctx, sessionID, line)
		if !ok {
			return
		}
		if _, err := conn.Write([]byte(reply)); err != nil {
			log.Warnw("write failed", "error", err)
			return
		}
	}
}

// submit hands a line to the dispatcher and waits for the reply. It reports
// false when the server is shutting down.
func (s *Server) submit(ctx context.Context, sessionID int64, line string) (string, bool) {
	req := request{sessionID: sessionID, line: line, reply: make(chan string, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return "", false
	}
	select {
	case reply := <-req.reply:
		return reply, true
	case <-ctx.Done():
		return "", false
	}
}

func (s *Server) notifyClosed(ctx context.Context, sessionID int64) {
	select {
	case s.requests <- request{sessionID: sessionID, closed: true}:
	case <-ctx.Done():
	}
}

// dispatchLoop is the only goroutine that touches the executor and, through
// it, the store.
func (s *Server) dispatchLoop(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case req := <-s.requests:
			if req.closed {
				s.executor.DropSession(req.sessionID)
				continue
			}
			req.reply <- s.execute(req.sessionID, req.line)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) execute(sessionID int64, line string) string {
	cmd, err := protocol.Parse(line)
	if err != nil {
		return err.Error()
	}

	start := time.Now()
	reply := s.executor.Execute(sessionID, cmd)
	s.metrics.CommandsTotal.WithLabelValues(string(cmd.Type)).Inc()
	s.metrics.CommandDuration.Observe(time.Since(start).Seconds())
	return reply
}
