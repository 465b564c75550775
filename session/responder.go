package session

import "github.com/quantforge/sbe/channel"

// channelResponder routes Enqueue calls to a session's outbound SPSC
// channel. Cloning it is just copying the pointer, matching spec.md's
// "cheap to clone" requirement.
type channelResponder struct {
	out *channel.SPSC[[]byte]
}

func newChannelResponder(out *channel.SPSC[[]byte]) *channelResponder {
	return &channelResponder{out: out}
}

func (r *channelResponder) Enqueue(payload []byte) error {
	frame := make([]byte, len(payload))
	copy(frame, payload)

	return r.out.Send(frame)
}
