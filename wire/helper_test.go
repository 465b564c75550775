package wire_test

import "github.com/quantforge/sbe/internal/pool"

func newPoolBuf(capacity int) *pool.ByteBuffer {
	return pool.NewByteBuffer(capacity)
}
