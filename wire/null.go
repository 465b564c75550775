package wire

import "math"

// Null sentinel values per SBE convention (spec.md §4.2, §9): max of the
// unsigned range, min of the signed range, NaN for floats. Generated
// getters compare a decoded value against these before returning it, and
// return the sentinel itself when a field was introduced in a schema
// version newer than the one the wire bytes were encoded under.
const (
	NullU8  uint8  = math.MaxUint8
	NullU16 uint16 = math.MaxUint16
	NullU32 uint32 = math.MaxUint32
	NullU64 uint64 = math.MaxUint64

	NullI8  int8  = math.MinInt8
	NullI16 int16 = math.MinInt16
	NullI32 int32 = math.MinInt32
	NullI64 int64 = math.MinInt64
)

// NullF32 is the conventional null sentinel for a 32-bit float field.
func NullF32() float32 { return float32(math.NaN()) }

// NullF64 is the conventional null sentinel for a 64-bit float field.
func NullF64() float64 { return math.NaN() }

// IsNullF32 reports whether v is the null sentinel. NaN is never equal to
// itself, so this cannot use ==.
func IsNullF32(v float32) bool { return v != v } //nolint:staticcheck // intentional NaN check

// IsNullF64 reports whether v is the null sentinel.
func IsNullF64(v float64) bool { return v != v } //nolint:staticcheck // intentional NaN check
