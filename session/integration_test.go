package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/internal/pool"
	"github.com/quantforge/sbe/session"
	"github.com/quantforge/sbe/wire"
)

func encodeHeaderFrame(t *testing.T, h wire.MessageHeader, body []byte) []byte {
	t.Helper()

	buf := wire.NewPoolBuffer(pool.NewByteBuffer(32))

	_, err := wire.Encode(buf, 0, wire.DefaultHeaderSpec(), wire.LittleEndian(), h)
	require.NoError(t, err)

	out := make([]byte, len(buf.Bytes()), len(buf.Bytes())+len(body))
	copy(out, buf.Bytes())
	out = append(out, body...)

	return out
}

type echoHandler struct {
	started chan uint64
}

func (h *echoHandler) OnSessionStart(id uint64) {
	if h.started != nil {
		h.started <- id
	}
}

func (h *echoHandler) OnMessage(id uint64, header wire.MessageHeader, payload []byte, r session.Responder) error {
	spec := wire.DefaultHeaderSpec()
	buf := wire.NewPoolBuffer(pool.NewByteBuffer(spec.Size() + len(payload)))

	if _, err := wire.Encode(buf, 0, spec, wire.LittleEndian(), header); err != nil {
		return err
	}

	framed := append(buf.Bytes(), payload...)

	return r.Enqueue(framed)
}

func (h *echoHandler) OnSessionEnd(id uint64) {}

func TestServerClient_EchoRoundTrip(t *testing.T) {
	handler := &echoHandler{started: make(chan uint64, 1)}

	srv, err := session.NewServer(":0", handler)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go srv.Run(ctx)

	addr := srv.Addr()

	client, err := session.Dial(ctx, addr.String(), session.WithConnectTimeout(2*time.Second))
	require.NoError(t, err)

	var connected bool
	require.Eventually(t, func() bool {
		ev, ok := client.Poll()
		if ok && ev.Kind == session.EventConnected {
			connected = true
		}

		return connected
	}, 2*time.Second, 10*time.Millisecond)

	header := wire.MessageHeader{BlockLength: 4, TemplateID: 1, SchemaID: 1, Version: 0}
	msg := encodeHeaderFrame(t, header, []byte{1, 2, 3, 4})

	require.NoError(t, client.Enqueue(msg))

	var got session.ClientEvent
	require.Eventually(t, func() bool {
		ev, ok := client.Poll()
		if ok && ev.Kind == session.EventMessage {
			got = ev
			return true
		}

		return false
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, msg, got.Message)

	select {
	case id := <-handler.started:
		require.Equal(t, uint64(1), id)
	case <-time.After(time.Second):
		t.Fatal("session never started")
	}
}
