package wire

// Responder is the single-method capability spec.md §4.3/§4.5 hands to a
// message handler: enqueue a byte slice for outbound transmission. The
// session package's implementation routes to a session's outbound channel;
// tests use InMemoryResponder to assert on what a handler would have sent
// without standing up a socket.
type Responder interface {
	// Enqueue submits frame for outbound delivery. frame is copied or
	// otherwise safe for the implementation to retain past the call;
	// callers must not reuse it afterward without knowing the concrete
	// implementation's aliasing behavior.
	Enqueue(frame []byte) error
}

// InMemoryResponder is a test Responder that appends every enqueued frame
// to a slice instead of writing to a socket.
type InMemoryResponder struct {
	Frames [][]byte
}

// NewInMemoryResponder creates an empty InMemoryResponder.
func NewInMemoryResponder() *InMemoryResponder {
	return &InMemoryResponder{}
}

var _ Responder = (*InMemoryResponder)(nil)

func (r *InMemoryResponder) Enqueue(frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)
	r.Frames = append(r.Frames, cp)

	return nil
}
