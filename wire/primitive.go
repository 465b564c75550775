package wire

import (
	"fmt"

	"github.com/quantforge/sbe/errs"
)

// ReadUint reads an unsigned integer of the given byte width (1, 2, 4, or 8)
// from data using engine's byte order. Generated getters for header and
// group-header fields call this instead of hard-coding a width, since
// spec.md §3/§6 allows a schema to customize MessageHeader and group-header
// field widths.
func ReadUint(data []byte, width int, engine EndianEngine) (uint64, error) {
	if len(data) < width {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", errs.ErrBufferTooSmall, width, len(data))
	}

	switch width {
	case 1:
		return uint64(data[0]), nil
	case 2:
		return uint64(engine.Uint16(data)), nil
	case 4:
		return uint64(engine.Uint32(data)), nil
	case 8:
		return engine.Uint64(data), nil
	default:
		return 0, fmt.Errorf("%w: unsupported width %d", errs.ErrBadGroupHeader, width)
	}
}

// AppendUint appends value to dst as a width-byte unsigned integer in
// engine's byte order, growing dst as append would.
func AppendUint(dst []byte, value uint64, width int, engine EndianEngine) ([]byte, error) {
	switch width {
	case 1:
		return append(dst, byte(value)), nil
	case 2:
		return engine.AppendUint16(dst, uint16(value)), nil
	case 4:
		return engine.AppendUint32(dst, uint32(value)), nil
	case 8:
		return engine.AppendUint64(dst, value), nil
	default:
		return dst, fmt.Errorf("%w: unsupported width %d", errs.ErrBadGroupHeader, width)
	}
}

// PutUint writes value into data as a width-byte unsigned integer in
// engine's byte order without growing data; data must already hold at
// least width bytes.
func PutUint(data []byte, value uint64, width int, engine EndianEngine) error {
	if len(data) < width {
		return fmt.Errorf("%w: need %d bytes, have %d", errs.ErrBufferTooSmall, width, len(data))
	}

	switch width {
	case 1:
		data[0] = byte(value)
	case 2:
		engine.PutUint16(data, uint16(value))
	case 4:
		engine.PutUint32(data, uint32(value))
	case 8:
		engine.PutUint64(data, value)
	default:
		return fmt.Errorf("%w: unsupported width %d", errs.ErrBadGroupHeader, width)
	}

	return nil
}
