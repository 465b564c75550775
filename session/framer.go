// Package session implements the TCP session engine: length-prefixed
// framing, a server engine that accepts connections and dispatches
// complete frames to an application handler, and a client engine that
// dials out, reconnects with backoff, and exposes a non-blocking event
// queue.
package session

import (
	"encoding/binary"

	"github.com/quantforge/sbe/errs"
	"github.com/quantforge/sbe/internal/pool"
)

// lengthPrefixSize is the width of the frame length prefix: a little-endian
// uint32 counting the bytes that follow (spec.md §6, "TCP framing").
const lengthPrefixSize = 4

// DefaultMaxFrameLength bounds a single frame's declared length to prevent
// memory amplification from a corrupt or malicious length prefix.
const DefaultMaxFrameLength = 16 * 1024 * 1024

// Framer accumulates bytes read off a socket and extracts complete
// length-prefixed frames. It is not safe for concurrent use; each session's
// reader task owns exactly one Framer.
type Framer struct {
	buf         *pool.ByteBuffer
	readPos     int
	maxFrameLen int
}

// NewFramer creates a Framer backed by a pooled inbound buffer. maxFrameLen
// of 0 selects DefaultMaxFrameLength.
func NewFramer(maxFrameLen int) *Framer {
	if maxFrameLen <= 0 {
		maxFrameLen = DefaultMaxFrameLength
	}

	return &Framer{
		buf:         pool.GetInboundBuffer(),
		maxFrameLen: maxFrameLen,
	}
}

// Release returns the Framer's backing buffer to the pool. Call once the
// session's reader task exits.
func (f *Framer) Release() {
	pool.PutInboundBuffer(f.buf)
	f.buf = nil
}

// Feed appends newly read bytes to the accumulator.
func (f *Framer) Feed(data []byte) {
	f.compact()
	f.buf.ExtendOrGrow(len(data))
	copy(f.buf.Bytes()[len(f.buf.Bytes())-len(data):], data)
}

// compact discards already-consumed bytes whenever there are any, moving the
// unconsumed tail to the front, so a long-lived session doesn't retain an
// ever-growing backing array.
func (f *Framer) compact() {
	if f.readPos == 0 {
		return
	}

	remaining := f.buf.Bytes()[f.readPos:]
	n := copy(f.buf.Bytes()[:cap(f.buf.Bytes())], remaining)
	f.buf.SetLength(n)
	f.readPos = 0
}

// Next extracts the next complete frame's payload (the bytes after the
// length prefix), if one is available. Returns (nil, false, nil) when more
// bytes are needed. Returns an error if a declared length exceeds
// maxFrameLen.
func (f *Framer) Next() ([]byte, bool, error) {
	avail := f.buf.Bytes()[f.readPos:]

	if len(avail) < lengthPrefixSize {
		return nil, false, nil
	}

	declared := int(binary.LittleEndian.Uint32(avail[:lengthPrefixSize]))
	if declared > f.maxFrameLen {
		return nil, false, errs.ErrFrameTooLarge
	}

	if len(avail) < lengthPrefixSize+declared {
		return nil, false, nil
	}

	payload := avail[lengthPrefixSize : lengthPrefixSize+declared]
	f.readPos += lengthPrefixSize + declared

	return payload, true, nil
}

// AppendFrame appends a length-prefixed frame for payload to dst.
func AppendFrame(dst []byte, payload []byte) []byte {
	var lenBuf [lengthPrefixSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	dst = append(dst, lenBuf[:]...)
	dst = append(dst, payload...)

	return dst
}
