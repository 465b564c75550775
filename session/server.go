package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quantforge/sbe/channel"
	"github.com/quantforge/sbe/errs"
	"github.com/quantforge/sbe/internal/options"
	"github.com/quantforge/sbe/wire"
)

// ServerConfig is the configuration surface spec.md §6 names for the
// server builder. Construct one with NewServer and a list of ServerOption.
type ServerConfig struct {
	BindAddr               string
	Handler                Handler
	MaxConnections         int
	InboundBufferSize      int
	OutboundChannelCap     int
	Logger                 *slog.Logger
	HeaderSpec             wire.HeaderSpec
	Endian                 wire.EndianEngine
}

// ServerOption configures a ServerConfig.
type ServerOption = options.Option[*ServerConfig]

// WithMaxConnections caps the number of concurrently admitted sessions.
func WithMaxConnections(n int) ServerOption {
	return options.NoError(func(c *ServerConfig) { c.MaxConnections = n })
}

// WithInboundBufferMaxFrame bounds a single frame's declared length.
func WithInboundBufferMaxFrame(n int) ServerOption {
	return options.NoError(func(c *ServerConfig) { c.InboundBufferSize = n })
}

// WithOutboundChannelCapacity sets each session's outbound SPSC ring size.
func WithOutboundChannelCapacity(n int) ServerOption {
	return options.NoError(func(c *ServerConfig) { c.OutboundChannelCap = n })
}

// WithLogger overrides the default slog.Default() logger.
func WithLogger(l *slog.Logger) ServerOption {
	return options.NoError(func(c *ServerConfig) { c.Logger = l })
}

// Server is the TCP server engine: it binds, accepts, and for each accepted
// connection runs a reader task (framing + handler dispatch) and a writer
// task (drains the outbound channel) until the socket closes or shutdown is
// signaled.
type Server struct {
	cfg      ServerConfig
	shutdown *ShutdownToken

	nextSessionID atomic.Uint64

	mu       sync.Mutex
	sessions map[uint64]*serverSession

	addrMu sync.Mutex
	addr   net.Addr
	ready  chan struct{}
}

type serverSession struct {
	id     uint64
	conn   net.Conn
	out    *channel.SPSC[[]byte]
	cancel context.CancelFunc
}

// NewServer validates and applies opts against a ServerConfig.
func NewServer(bindAddr string, handler Handler, opts ...ServerOption) (*Server, error) {
	cfg := ServerConfig{
		BindAddr:           bindAddr,
		Handler:            handler,
		MaxConnections:     1024,
		InboundBufferSize:  DefaultMaxFrameLength,
		OutboundChannelCap: 1024,
		Logger:             slog.Default(),
		HeaderSpec:         wire.DefaultHeaderSpec(),
		Endian:             wire.LittleEndian(),
	}

	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	if handler == nil {
		return nil, fmt.Errorf("session: server: %w: handler is nil", errs.ErrBindFailed)
	}

	return &Server{
		cfg:      cfg,
		shutdown: NewShutdownToken(5 * time.Second),
		sessions: make(map[uint64]*serverSession),
		ready:    make(chan struct{}),
	}, nil
}

// Addr blocks until the listener is bound and returns its address. Intended
// for tests that bind to ":0" and need the assigned port.
func (s *Server) Addr() net.Addr {
	<-s.ready

	s.addrMu.Lock()
	defer s.addrMu.Unlock()

	return s.addr
}

// Run binds the listen address and accepts connections until ctx is
// canceled or Shutdown is called. It blocks until the listener stops.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{}

	ln, err := lc.Listen(ctx, "tcp", s.cfg.BindAddr)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrBindFailed, err)
	}
	defer ln.Close()

	s.addrMu.Lock()
	s.addr = ln.Addr()
	s.addrMu.Unlock()
	close(s.ready)

	go func() {
		select {
		case <-ctx.Done():
		case <-s.shutdown.Done():
		}

		ln.Close()
	}()

	var wg sync.WaitGroup

	for {
		conn, err := ln.Accept()
		if err != nil {
			wg.Wait()

			select {
			case <-ctx.Done():
				return nil
			case <-s.shutdown.Done():
				return nil
			default:
				return fmt.Errorf("%w: %v", errs.ErrIO, err)
			}
		}

		s.mu.Lock()
		tooMany := len(s.sessions) >= s.cfg.MaxConnections
		s.mu.Unlock()

		if tooMany {
			s.cfg.Logger.Warn("session: rejecting connection, too many sessions", "remote", conn.RemoteAddr())
			conn.Close()

			continue
		}

		wg.Add(1)

		go func() {
			defer wg.Done()
			s.serve(ctx, conn)
		}()
	}
}

// Shutdown signals all sessions to stop and returns without waiting. Each
// session's writer then drains its outbound queue for up to the shutdown
// token's grace period before the connection closes.
func (s *Server) Shutdown() {
	s.shutdown.Signal()
}

// SessionCount returns the number of currently admitted sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	id := s.nextSessionID.Add(1)
	out := channel.NewSPSC[[]byte](s.cfg.OutboundChannelCap)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := &serverSession{id: id, conn: conn, out: out, cancel: cancel}

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()

		conn.Close()
		s.cfg.Handler.OnSessionEnd(id)
	}()

	s.cfg.Handler.OnSessionStart(id)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer cancel()
		s.writerLoop(sessCtx, sess)
	}()

	go func() {
		defer wg.Done()
		defer cancel()
		s.readerLoop(sessCtx, sess)
	}()

	wg.Wait()
}

func (s *Server) readerLoop(ctx context.Context, sess *serverSession) {
	framer := NewFramer(s.cfg.InboundBufferSize)
	defer framer.Release()

	responder := newChannelResponder(sess.out)
	readBuf := make([]byte, 64*1024)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.shutdown.Done():
			return
		default:
		}

		sess.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))

		n, err := sess.conn.Read(readBuf)
		if n > 0 {
			framer.Feed(readBuf[:n])

			for {
				payload, ok, ferr := framer.Next()
				if ferr != nil {
					s.cfg.Logger.Error("session: frame too large, closing", "session", sess.id, "err", ferr)
					return
				}

				if !ok {
					break
				}

				header, headerLen, herr := wire.Decode(wire.NewReadOnly(payload), 0, s.cfg.HeaderSpec, s.cfg.Endian)
				if herr != nil {
					s.cfg.Logger.Error("session: bad message header, closing", "session", sess.id, "err", herr)
					return
				}

				if herr := s.cfg.Handler.OnMessage(sess.id, header, payload[headerLen:], responder); herr != nil {
					s.cfg.Logger.Error("session: handler error", "session", sess.id, "err", herr)
				}
			}
		}

		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}

			return
		}
	}
}

func (s *Server) writerLoop(ctx context.Context, sess *serverSession) {
	for {
		select {
		case <-ctx.Done():
			s.drain(sess)
			return
		default:
		}

		frame, ok := sess.out.Receive()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		if err := s.writeFrame(sess.conn, frame); err != nil {
			return
		}
	}
}

func (s *Server) drain(sess *serverSession) {
	deadline := time.Now().Add(s.shutdown.Grace())

	for time.Now().Before(deadline) {
		frame, ok := sess.out.Receive()
		if !ok {
			return
		}

		if err := s.writeFrame(sess.conn, frame); err != nil {
			return
		}
	}
}

func (s *Server) writeFrame(conn net.Conn, payload []byte) error {
	buf := AppendFrame(make([]byte, 0, lengthPrefixSize+len(payload)), payload)
	_, err := conn.Write(buf)

	return err
}
