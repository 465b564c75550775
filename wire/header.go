package wire

import "github.com/quantforge/sbe/errs"

// HeaderSpec describes the byte width of each MessageHeader field. SBE
// defaults every field to 2 bytes (8 bytes total); spec.md §3/§6 allows a
// schema to customize these widths, so the spec's canonical 8-byte layout
// is DefaultHeaderSpec rather than a hard-coded constant.
type HeaderSpec struct {
	BlockLengthWidth int
	TemplateIDWidth  int
	SchemaIDWidth    int
	VersionWidth     int
}

// DefaultHeaderSpec is the SBE default: four 2-byte fields, 8 bytes total.
func DefaultHeaderSpec() HeaderSpec {
	return HeaderSpec{BlockLengthWidth: 2, TemplateIDWidth: 2, SchemaIDWidth: 2, VersionWidth: 2}
}

// Size returns the header's total encoded width in bytes.
func (s HeaderSpec) Size() int {
	return s.BlockLengthWidth + s.TemplateIDWidth + s.SchemaIDWidth + s.VersionWidth
}

// MessageHeader is the fixed composite that precedes every message's root
// block: blockLength, templateId, schemaId, version (spec.md §3).
type MessageHeader struct {
	BlockLength uint16
	TemplateID  uint16
	SchemaID    uint16
	Version     uint16
}

// Encode writes h into buf at offset using spec's field widths and engine's
// byte order, returning the offset immediately following the header (the
// start of the root block).
func Encode(buf Buffer, offset int, spec HeaderSpec, engine EndianEngine, h MessageHeader) (int, error) {
	fields := []struct {
		width int
		value uint64
	}{
		{spec.BlockLengthWidth, uint64(h.BlockLength)},
		{spec.TemplateIDWidth, uint64(h.TemplateID)},
		{spec.SchemaIDWidth, uint64(h.SchemaID)},
		{spec.VersionWidth, uint64(h.Version)},
	}

	cursor := offset
	for _, f := range fields {
		tmp := make([]byte, f.width)
		if err := PutUint(tmp, f.value, f.width, engine); err != nil {
			return offset, err
		}
		if err := buf.WriteAt(cursor, tmp); err != nil {
			return offset, err
		}
		cursor += f.width
	}

	return cursor, nil
}

// Decode reads a MessageHeader from buf at offset, returning the header and
// the offset immediately following it.
func Decode(buf Buffer, offset int, spec HeaderSpec, engine EndianEngine) (MessageHeader, int, error) {
	var h MessageHeader

	cursor := offset

	raw, err := buf.ReadAt(offset, spec.Size())
	if err != nil {
		return h, offset, err
	}

	pos := 0
	read := func(width int) (uint64, error) {
		v, err := ReadUint(raw[pos:pos+width], width, engine)
		pos += width
		return v, err
	}

	bl, err := read(spec.BlockLengthWidth)
	if err != nil {
		return h, offset, err
	}
	tid, err := read(spec.TemplateIDWidth)
	if err != nil {
		return h, offset, err
	}
	sid, err := read(spec.SchemaIDWidth)
	if err != nil {
		return h, offset, err
	}
	ver, err := read(spec.VersionWidth)
	if err != nil {
		return h, offset, err
	}

	h = MessageHeader{
		BlockLength: uint16(bl),
		TemplateID:  uint16(tid),
		SchemaID:    uint16(sid),
		Version:     uint16(ver),
	}
	cursor += spec.Size()

	return h, cursor, nil
}

// GroupSpec describes the byte width of a repeating group's header fields:
// blockLength and numInGroup (spec.md §3, "widths may be customized per
// schema").
type GroupSpec struct {
	BlockLengthWidth int
	NumInGroupWidth  int
}

// DefaultGroupSpec is the SBE default: two 2-byte fields, 4 bytes total.
func DefaultGroupSpec() GroupSpec {
	return GroupSpec{BlockLengthWidth: 2, NumInGroupWidth: 2}
}

func (s GroupSpec) Size() int { return s.BlockLengthWidth + s.NumInGroupWidth }

// GroupHeader prefixes a repeating group's entries.
type GroupHeader struct {
	BlockLength uint16
	NumInGroup  uint16
}

// EncodeGroupHeader appends a group header to buf and returns the offset it
// was written at.
func EncodeGroupHeader(buf Buffer, spec GroupSpec, engine EndianEngine, h GroupHeader) (int, error) {
	raw := make([]byte, 0, spec.Size())

	var err error
	raw, err = AppendUint(raw, uint64(h.BlockLength), spec.BlockLengthWidth, engine)
	if err != nil {
		return 0, err
	}
	raw, err = AppendUint(raw, uint64(h.NumInGroup), spec.NumInGroupWidth, engine)
	if err != nil {
		return 0, err
	}

	return buf.Append(raw)
}

// DecodeGroupHeader reads a group header from buf at offset, returning the
// header and the offset immediately following it (the start of entry 0).
func DecodeGroupHeader(buf Buffer, offset int, spec GroupSpec, engine EndianEngine) (GroupHeader, int, error) {
	raw, err := buf.ReadAt(offset, spec.Size())
	if err != nil {
		return GroupHeader{}, offset, err
	}

	bl, err := ReadUint(raw[:spec.BlockLengthWidth], spec.BlockLengthWidth, engine)
	if err != nil {
		return GroupHeader{}, offset, err
	}
	n, err := ReadUint(raw[spec.BlockLengthWidth:], spec.NumInGroupWidth, engine)
	if err != nil {
		return GroupHeader{}, offset, err
	}

	if n > 1<<20 {
		return GroupHeader{}, offset, errs.ErrBadGroupHeader
	}

	return GroupHeader{BlockLength: uint16(bl), NumInGroup: uint16(n)}, offset + spec.Size(), nil
}
