package wire

import "math"

// PrimitiveBase is wire's own copy of SBE's eleven primitive base kinds.
// It mirrors schema.PrimitiveBase exactly (same names, same order) but
// lives here, rather than being imported from the schema package, since
// schema already imports wire and Go forbids the reverse. Generated code
// never passes a PrimitiveBase value at a call site — the generator picks
// the matching Read<Base>/Write<Base> function by name at generation time
// — but codegen still needs Size() to compute field widths and offsets.
type PrimitiveBase uint8

const (
	I8 PrimitiveBase = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Char
)

// Size returns the encoded width in bytes of one value of base.
func (b PrimitiveBase) Size() int {
	switch b {
	case I8, U8, Char:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	default:
		return 8
	}
}

// ReadI8/WriteI8 through ReadChar/WriteChar decode and encode one of SBE's
// fixed-width primitives at a byte offset. Each pair is monomorphic in its
// Go type: unlike a single any-typed ReadScalar/WriteScalar, calling one of
// these never boxes the value onto the heap to pass through an interface,
// matching the no-allocation-on-the-accessor-path requirement. The
// generator selects which pair to call for a field from that field's
// PrimitiveBase at generation time, the same way it already picks the
// field's concrete Go type.

func ReadI8(buf Reader, offset int) (int8, error) {
	data, err := buf.ReadAt(offset, 1)
	if err != nil {
		return 0, err
	}

	return int8(data[0]), nil
}

func WriteI8(buf Writer, offset int, v int8) error {
	return buf.WriteAt(offset, []byte{byte(v)})
}

func ReadU8(buf Reader, offset int) (uint8, error) {
	data, err := buf.ReadAt(offset, 1)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

func WriteU8(buf Writer, offset int, v uint8) error {
	return buf.WriteAt(offset, []byte{v})
}

func ReadChar(buf Reader, offset int) (byte, error) {
	data, err := buf.ReadAt(offset, 1)
	if err != nil {
		return 0, err
	}

	return data[0], nil
}

func WriteChar(buf Writer, offset int, v byte) error {
	return buf.WriteAt(offset, []byte{v})
}

func ReadI16(buf Reader, offset int, engine EndianEngine) (int16, error) {
	data, err := buf.ReadAt(offset, 2)
	if err != nil {
		return 0, err
	}

	return int16(engine.Uint16(data)), nil
}

func WriteI16(buf Writer, offset int, engine EndianEngine, v int16) error {
	var tmp [2]byte
	engine.PutUint16(tmp[:], uint16(v))

	return buf.WriteAt(offset, tmp[:])
}

func ReadU16(buf Reader, offset int, engine EndianEngine) (uint16, error) {
	data, err := buf.ReadAt(offset, 2)
	if err != nil {
		return 0, err
	}

	return engine.Uint16(data), nil
}

func WriteU16(buf Writer, offset int, engine EndianEngine, v uint16) error {
	var tmp [2]byte
	engine.PutUint16(tmp[:], v)

	return buf.WriteAt(offset, tmp[:])
}

func ReadI32(buf Reader, offset int, engine EndianEngine) (int32, error) {
	data, err := buf.ReadAt(offset, 4)
	if err != nil {
		return 0, err
	}

	return int32(engine.Uint32(data)), nil
}

func WriteI32(buf Writer, offset int, engine EndianEngine, v int32) error {
	var tmp [4]byte
	engine.PutUint32(tmp[:], uint32(v))

	return buf.WriteAt(offset, tmp[:])
}

func ReadU32(buf Reader, offset int, engine EndianEngine) (uint32, error) {
	data, err := buf.ReadAt(offset, 4)
	if err != nil {
		return 0, err
	}

	return engine.Uint32(data), nil
}

func WriteU32(buf Writer, offset int, engine EndianEngine, v uint32) error {
	var tmp [4]byte
	engine.PutUint32(tmp[:], v)

	return buf.WriteAt(offset, tmp[:])
}

func ReadI64(buf Reader, offset int, engine EndianEngine) (int64, error) {
	data, err := buf.ReadAt(offset, 8)
	if err != nil {
		return 0, err
	}

	return int64(engine.Uint64(data)), nil
}

func WriteI64(buf Writer, offset int, engine EndianEngine, v int64) error {
	var tmp [8]byte
	engine.PutUint64(tmp[:], uint64(v))

	return buf.WriteAt(offset, tmp[:])
}

func ReadU64(buf Reader, offset int, engine EndianEngine) (uint64, error) {
	data, err := buf.ReadAt(offset, 8)
	if err != nil {
		return 0, err
	}

	return engine.Uint64(data), nil
}

func WriteU64(buf Writer, offset int, engine EndianEngine, v uint64) error {
	var tmp [8]byte
	engine.PutUint64(tmp[:], v)

	return buf.WriteAt(offset, tmp[:])
}

func ReadF32(buf Reader, offset int, engine EndianEngine) (float32, error) {
	data, err := buf.ReadAt(offset, 4)
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(engine.Uint32(data)), nil
}

func WriteF32(buf Writer, offset int, engine EndianEngine, v float32) error {
	var tmp [4]byte
	engine.PutUint32(tmp[:], math.Float32bits(v))

	return buf.WriteAt(offset, tmp[:])
}

func ReadF64(buf Reader, offset int, engine EndianEngine) (float64, error) {
	data, err := buf.ReadAt(offset, 8)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(engine.Uint64(data)), nil
}

func WriteF64(buf Writer, offset int, engine EndianEngine, v float64) error {
	var tmp [8]byte
	engine.PutUint64(tmp[:], math.Float64bits(v))

	return buf.WriteAt(offset, tmp[:])
}
