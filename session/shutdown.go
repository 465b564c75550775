package session

import (
	"context"
	"time"
)

// ShutdownToken signals every reader/writer task to stop and bounds how
// long they are given to drain outbound queues before the engine drops
// remaining sessions.
type ShutdownToken struct {
	ctx    context.Context
	cancel context.CancelFunc
	grace  time.Duration
}

// NewShutdownToken creates a token with the given drain grace period.
func NewShutdownToken(grace time.Duration) *ShutdownToken {
	ctx, cancel := context.WithCancel(context.Background())

	return &ShutdownToken{ctx: ctx, cancel: cancel, grace: grace}
}

// Done returns a channel closed once shutdown has been signaled.
func (t *ShutdownToken) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Signal begins shutdown: tasks observing Done() at their next suspension
// point stop accepting new work.
func (t *ShutdownToken) Signal() {
	t.cancel()
}

// Grace returns the configured drain grace period.
func (t *ShutdownToken) Grace() time.Duration {
	return t.grace
}
