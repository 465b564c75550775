package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"time"

	"github.com/quantforge/sbe/channel"
	"github.com/quantforge/sbe/errs"
	"github.com/quantforge/sbe/internal/options"
	"github.com/quantforge/sbe/wire"
)

// ClientEventKind discriminates a ClientEvent.
type ClientEventKind int

const (
	EventConnected ClientEventKind = iota
	EventDisconnected
	EventMessage
	EventError
)

// ClientEvent is delivered via ClientHandle.Poll. Message is populated only
// for EventMessage; Err only for EventError.
type ClientEvent struct {
	Kind    ClientEventKind
	Message []byte
	Err     error
}

// ClientConfig is the configuration surface spec.md §6 names for the
// client builder.
type ClientConfig struct {
	ConnectAddr          string
	ConnectTimeout       time.Duration
	MaxReconnectAttempts uint32 // 0 disables reconnection; math.MaxUint32 means unbounded
	ReconnectInitialDelay time.Duration
	ReconnectMaxDelay    time.Duration
	OutboundChannelCap   int
	InboundMaxFrame      int
	Logger               *slog.Logger
	HeaderSpec           wire.HeaderSpec
	Endian               wire.EndianEngine
}

// ClientOption configures a ClientConfig.
type ClientOption = options.Option[*ClientConfig]

// WithConnectTimeout bounds how long a single dial attempt may take.
func WithConnectTimeout(d time.Duration) ClientOption {
	return options.NoError(func(c *ClientConfig) { c.ConnectTimeout = d })
}

// WithMaxReconnectAttempts sets the reconnect attempt ceiling. 0 disables
// reconnection; math.MaxUint32 means unbounded.
func WithMaxReconnectAttempts(n uint32) ClientOption {
	return options.NoError(func(c *ClientConfig) { c.MaxReconnectAttempts = n })
}

// WithReconnectBackoff sets the exponential backoff's initial delay D0 and
// ceiling Dmax (multiplier is fixed at 2, per spec.md §4.5).
func WithReconnectBackoff(initial, max time.Duration) ClientOption {
	return options.NoError(func(c *ClientConfig) {
		c.ReconnectInitialDelay = initial
		c.ReconnectMaxDelay = max
	})
}

// ClientHandle is the caller-facing surface of a running client: enqueue
// outbound frames, poll for connection/message events, and request
// disconnect.
type ClientHandle struct {
	cfg      ClientConfig
	shutdown *ShutdownToken
	out      *channel.SPSC[[]byte]
	events   *channel.SPSC[ClientEvent]
}

// Dial starts a client connection loop in the background and returns a
// handle immediately; connection and reconnection happen asynchronously,
// observable via Poll.
func Dial(ctx context.Context, addr string, opts ...ClientOption) (*ClientHandle, error) {
	cfg := ClientConfig{
		ConnectAddr:           addr,
		ConnectTimeout:        5 * time.Second,
		MaxReconnectAttempts:  math.MaxUint32,
		ReconnectInitialDelay: 100 * time.Millisecond,
		ReconnectMaxDelay:     10 * time.Second,
		OutboundChannelCap:    1024,
		InboundMaxFrame:       DefaultMaxFrameLength,
		Logger:                slog.Default(),
		HeaderSpec:            wire.DefaultHeaderSpec(),
		Endian:                wire.LittleEndian(),
	}

	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	h := &ClientHandle{
		cfg:      cfg,
		shutdown: NewShutdownToken(time.Second),
		out:      channel.NewSPSC[[]byte](cfg.OutboundChannelCap),
		events:   channel.NewSPSC[ClientEvent](1024),
	}

	go h.run(ctx)

	return h, nil
}

// Enqueue queues an outbound message payload for transmission once connected.
func (h *ClientHandle) Enqueue(payload []byte) error {
	frame := make([]byte, len(payload))
	copy(frame, payload)

	return h.out.Send(frame)
}

// Poll returns the next pending ClientEvent, if any, without blocking.
func (h *ClientHandle) Poll() (ClientEvent, bool) {
	return h.events.Receive()
}

// Disconnect signals the client's connection loop to stop and not reconnect.
func (h *ClientHandle) Disconnect() {
	h.shutdown.Signal()
}

func (h *ClientHandle) run(ctx context.Context) {
	delay := h.cfg.ReconnectInitialDelay
	// failures counts consecutive failed connects; a successful connect resets it.
	var failures uint32

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.shutdown.Done():
			return
		default:
		}

		conn, err := h.connect(ctx)
		if err != nil {
			h.emit(ClientEvent{Kind: EventError, Err: err})
			failures++

			if h.cfg.MaxReconnectAttempts == 0 || failures >= h.cfg.MaxReconnectAttempts {
				return
			}

			h.sleep(ctx, delay)
			delay = nextDelay(delay, h.cfg.ReconnectMaxDelay)

			continue
		}

		failures = 0
		delay = h.cfg.ReconnectInitialDelay
		h.emit(ClientEvent{Kind: EventConnected})

		h.serveConn(ctx, conn)

		h.emit(ClientEvent{Kind: EventDisconnected})

		if h.cfg.MaxReconnectAttempts == 0 {
			return
		}
	}
}

func (h *ClientHandle) connect(ctx context.Context) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, h.cfg.ConnectTimeout)
	defer cancel()

	var d net.Dialer

	conn, err := d.DialContext(dialCtx, "tcp", h.cfg.ConnectAddr)
	if err != nil {
		if dialCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", errs.ErrConnectTimeout, err)
		}

		return nil, fmt.Errorf("%w: %v", errs.ErrConnectFailed, err)
	}

	return conn, nil
}

func (h *ClientHandle) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		h.writerLoop(connCtx, conn)
	}()

	h.readerLoop(connCtx, conn)
	cancel()
	<-done
}

func (h *ClientHandle) readerLoop(ctx context.Context, conn net.Conn) {
	framer := NewFramer(h.cfg.InboundMaxFrame)
	defer framer.Release()

	readBuf := make([]byte, 64*1024)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.shutdown.Done():
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))

		n, err := conn.Read(readBuf)
		if n > 0 {
			framer.Feed(readBuf[:n])

			for {
				payload, ok, ferr := framer.Next()
				if ferr != nil {
					h.emit(ClientEvent{Kind: EventError, Err: ferr})
					return
				}

				if !ok {
					break
				}

				msg := make([]byte, len(payload))
				copy(msg, payload)
				h.emit(ClientEvent{Kind: EventMessage, Message: msg})
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

func (h *ClientHandle) writerLoop(ctx context.Context, conn net.Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.shutdown.Done():
			return
		default:
		}

		frame, ok := h.out.Receive()
		if !ok {
			time.Sleep(time.Millisecond)
			continue
		}

		buf := AppendFrame(make([]byte, 0, lengthPrefixSize+len(frame)), frame)
		if _, err := conn.Write(buf); err != nil {
			return
		}
	}
}

func (h *ClientHandle) emit(ev ClientEvent) {
	for h.events.Send(ev) != nil {
		h.events.Receive()
	}
}

func (h *ClientHandle) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-h.shutdown.Done():
	case <-t.C:
	}
}

func nextDelay(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}

	return next
}
