package session

import "github.com/quantforge/sbe/wire"

// Handler is the application callback surface for a session. on_message
// runs synchronously on the session's reader task and must not block or
// perform I/O; the Responder it receives is cheap to copy and routes to the
// session's outbound channel.
type Handler interface {
	OnSessionStart(sessionID uint64)
	OnMessage(sessionID uint64, header wire.MessageHeader, payload []byte, responder Responder) error
	OnSessionEnd(sessionID uint64)
}

// Responder enqueues an outbound frame payload (the raw SBE message bytes,
// without the length prefix — the writer task adds that) onto a session's
// outbound channel.
type Responder interface {
	Enqueue(payload []byte) error
}
