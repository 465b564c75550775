package wire

import (
	"fmt"

	"github.com/quantforge/sbe/errs"
)

// VarDataSpec selects the width of a variable-length data entry's length
// prefix. spec.md §9 Open Question (b): the prefix width is declared per
// schema (typically 16 or 32 bits) and this runtime follows that
// declaration rather than hard-coding either width.
type VarDataSpec struct {
	LengthWidth int // 1, 2, 4, or 8 bytes
}

// DefaultVarDataSpec matches the common SBE convention of a uint32 length
// prefix.
func DefaultVarDataSpec() VarDataSpec { return VarDataSpec{LengthWidth: 4} }

// MaxVarDataLength bounds a single var-data payload to prevent a corrupt or
// malicious length prefix from causing an unbounded allocation.
const MaxVarDataLength = 64 * 1024 * 1024

// AppendVarData appends a length-prefixed payload to buf: LengthWidth bytes
// encoding len(payload), followed by payload itself. Returns the offset the
// entry was written at.
func AppendVarData(buf Buffer, spec VarDataSpec, engine EndianEngine, payload []byte) (int, error) {
	if len(payload) > MaxVarDataLength {
		return 0, fmt.Errorf("%w: %d bytes exceeds max %d", errs.ErrVarDataOverflow, len(payload), MaxVarDataLength)
	}

	prefix := make([]byte, 0, spec.LengthWidth)
	prefix, err := AppendUint(prefix, uint64(len(payload)), spec.LengthWidth, engine)
	if err != nil {
		return 0, err
	}

	offset, err := buf.Append(prefix)
	if err != nil {
		return 0, err
	}

	if _, err := buf.Append(payload); err != nil {
		return 0, err
	}

	return offset, nil
}

// ReadVarData reads a length-prefixed payload from buf at offset, returning
// a borrowed slice of the payload and the offset immediately following the
// entry (the start of the next var-data entry, if any).
func ReadVarData(buf Buffer, offset int, spec VarDataSpec, engine EndianEngine) ([]byte, int, error) {
	prefix, err := buf.ReadAt(offset, spec.LengthWidth)
	if err != nil {
		return nil, offset, err
	}

	length, err := ReadUint(prefix, spec.LengthWidth, engine)
	if err != nil {
		return nil, offset, err
	}

	if length > MaxVarDataLength {
		return nil, offset, fmt.Errorf("%w: declared length %d exceeds max %d", errs.ErrVarDataOverflow, length, MaxVarDataLength)
	}

	payloadOffset := offset + spec.LengthWidth

	payload, err := buf.ReadAt(payloadOffset, int(length))
	if err != nil {
		return nil, offset, err
	}

	return payload, payloadOffset + int(length), nil
}
