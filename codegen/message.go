package codegen

import (
	"fmt"
	"strings"

	"github.com/quantforge/sbe/schema"
)

type blockSpec struct {
	name        string // exported Go type prefix for this block's Encoder/Decoder
	blockLength int
	fields      []schema.Field
	groups      []schema.Group
	varData     []schema.VarDataField
}

func (g *generator) engineExpr() string {
	if g.s.ByteOrder == schema.BigEndian {
		return "wire.BigEndian()"
	}

	return "wire.LittleEndian()"
}

func (g *generator) groupSpecExpr() string {
	return fmt.Sprintf("wire.GroupSpec{BlockLengthWidth: %d, NumInGroupWidth: %d}",
		g.s.GroupSpec.BlockLengthWidth, g.s.GroupSpec.NumInGroupWidth)
}

func (g *generator) writeMessage(b *strings.Builder, m *schema.Message) {
	fmt.Fprintf(b, "const (\n\t%sTemplateID uint16 = %d\n\t%sSchemaVersion uint16 = %d\n)\n\n",
		exportName(m.Name), m.ID, exportName(m.Name), m.SchemaVersion)

	spec := blockSpec{
		name:        exportName(m.Name),
		blockLength: m.BlockLength,
		fields:      m.Fields,
		groups:      m.Groups,
		varData:     m.VarData,
	}

	g.writeBlock(b, spec)
}

// writeBlock emits an Encoder/Decoder pair for one fixed-layout block: a
// message root, or one repeating group's entry. Both shapes are
// constructed the same way (reserve/read blockLength bytes at the buffer's
// current append position or a caller-given offset) since group entries
// are themselves just appended sequentially by their enclosing group
// container.
func (g *generator) writeBlock(b *strings.Builder, spec blockSpec) {
	g.writeEncoder(b, spec)
	g.writeDecoder(b, spec)

	for _, grp := range spec.groups {
		childSpec := blockSpec{
			name:        spec.name + exportName(grp.Name),
			blockLength: grp.BlockLength,
			fields:      grp.Fields,
			groups:      grp.Groups,
			varData:     grp.VarData,
		}

		g.writeGroupContainer(b, spec.name, grp, childSpec)
		g.writeBlock(b, childSpec)
	}
}

// writeEncoder emits the Encoder type for spec. The encoder never tracks its
// own write cursor: buf is a single shared append-only Buffer, so the next
// write position is always buf.Len(), and EncodedLength is just the
// distance travelled from offset.
func (g *generator) writeEncoder(b *strings.Builder, spec blockSpec) {
	typeName := spec.name + "Encoder"

	fmt.Fprintf(b, "type %s struct {\n\tbuf wire.Buffer\n\toffset int\n\tengine wire.EndianEngine\n}\n\n", typeName)

	fmt.Fprintf(b, `func New%s(buf wire.Buffer) (%s, error) {
	offset, err := buf.Append(make([]byte, %d))
	if err != nil {
		return %s{}, err
	}
	return %s{buf: buf, offset: offset, engine: %s}, nil
}

`, typeName, typeName, spec.blockLength, typeName, typeName, g.engineExpr())

	for _, f := range spec.fields {
		g.writeFieldSetter(b, typeName, f)
	}

	for _, vd := range spec.varData {
		g.writeVarDataSetter(b, typeName, vd)
	}

	fmt.Fprintf(b, "// EncodedLength returns the number of bytes this block and everything appended after it occupy so far.\n")
	fmt.Fprintf(b, "func (e *%s) EncodedLength() int { return e.buf.Len() - e.offset }\n\n", typeName)
}

func (g *generator) writeVarDataSetter(b *strings.Builder, typeName string, vd schema.VarDataField) {
	name := exportName(vd.Name)

	fmt.Fprintf(b, `func (e *%s) Set%s(data []byte) error {
	_, err := wire.AppendVarData(e.buf, wire.VarDataSpec{LengthWidth: %d}, e.engine, data)
	return err
}

`, typeName, name, g.s.VarData.LengthWidth)
}

// writeVarDataGetter emits a var-data accessor that reads from and advances
// d.cursor: unlike the encoder's append-only buffer, the decoder must track
// an explicit read position since var-data entries are only found by
// walking sequentially past the fields and groups that precede them.
func (g *generator) writeVarDataGetter(b *strings.Builder, typeName string, vd schema.VarDataField) {
	name := exportName(vd.Name)

	fmt.Fprintf(b, `func (d *%s) %s() ([]byte, error) {
	if d.actingVersion < %d {
		return nil, nil
	}
	data, next, err := wire.ReadVarData(d.buf, d.cursor, wire.VarDataSpec{LengthWidth: %d}, d.engine)
	if err != nil {
		return nil, err
	}
	d.cursor = next
	return data, nil
}

`, typeName, name, vd.SinceVersion, g.s.VarData.LengthWidth)
}

func (g *generator) writeFieldSetter(b *strings.Builder, typeName string, f schema.Field) {
	name := exportName(f.Name)
	goType := fieldGoType(f.Type)

	if f.Type.Kind == schema.KindComposite {
		fmt.Fprintf(b, "func (e *%s) %s() %s { return New%s(e.buf, e.offset+%d, e.engine) }\n\n",
			typeName, name, goType, goType, f.Offset)

		return
	}

	if f.Type.Kind == schema.KindPrimitive && f.Type.Primitive.Length > 1 {
		fmt.Fprintf(b, `func (e *%s) Set%s(v %s) error {
	data := make([]byte, %d)
	copy(data, v)
	return e.buf.WriteAt(e.offset+%d, data)
}

`, typeName, name, goType, f.Type.Size(), f.Offset)

		return
	}

	base := primitiveBaseOfRaw(f.Type)

	fmt.Fprintf(b, `func (e *%s) Set%s(v %s) error {
	return %s
}

`, typeName, name, goType, writeScalarCall(base, "e.buf", fmt.Sprintf("e.offset+%d", f.Offset), "e.engine", scalarCast(f.Type, "v")))
}

// writeDecoder emits the Decoder type for spec. Fixed-offset field getters
// never touch d.cursor; only var-data and group traversal do, since those
// are the only parts of the wire layout whose position isn't known from the
// schema alone.
func (g *generator) writeDecoder(b *strings.Builder, spec blockSpec) {
	typeName := spec.name + "Decoder"

	fmt.Fprintf(b, "type %s struct {\n\tbuf wire.Buffer\n\toffset int\n\tcursor int\n\tactingVersion uint16\n\tengine wire.EndianEngine\n}\n\n", typeName)

	fmt.Fprintf(b, `func New%s(buf wire.Buffer, offset int, actingVersion uint16) %s {
	return %s{buf: buf, offset: offset, cursor: offset + %d, actingVersion: actingVersion, engine: %s}
}

`, typeName, typeName, typeName, spec.blockLength, g.engineExpr())

	for _, f := range spec.fields {
		g.writeFieldGetter(b, typeName, f)
	}

	for _, vd := range spec.varData {
		g.writeVarDataGetter(b, typeName, vd)
	}

	fmt.Fprintf(b, "// EncodedLength returns the number of bytes consumed so far; call after reading every field, group and var-data entry for an accurate total.\n")
	fmt.Fprintf(b, "func (d *%s) EncodedLength() int { return d.cursor - d.offset }\n\n", typeName)
}

func (g *generator) writeFieldGetter(b *strings.Builder, typeName string, f schema.Field) {
	name := exportName(f.Name)
	goType := fieldGoType(f.Type)

	if f.Type.Kind == schema.KindComposite {
		fmt.Fprintf(b, "func (d *%s) %s() %s { return New%s(d.buf, d.offset+%d, d.engine) }\n\n",
			typeName, name, goType, goType, f.Offset)

		return
	}

	if f.Type.Kind == schema.KindPrimitive && f.Type.Primitive.Length > 1 {
		fmt.Fprintf(b, `func (d *%s) %s() ([]byte, error) {
	if d.actingVersion < %d {
		return nil, nil
	}
	return d.buf.ReadAt(d.offset+%d, %d)
}

`, typeName, name, f.SinceVersion, f.Offset, f.Type.Size())

		return
	}

	base := primitiveBaseOfRaw(f.Type)
	null := nullExprTyped(f.Type)

	fmt.Fprintf(b, `func (d *%s) %s() (%s, error) {
	if d.actingVersion < %d {
		return %s, nil
	}
	v, err := %s
	if err != nil {
		return %s, err
	}
	return %s, nil
}

`, typeName, name, goType, f.SinceVersion, null,
		readScalarCall(base, "d.buf", fmt.Sprintf("d.offset+%d", f.Offset), "d.engine"),
		null, namedCast(f.Type, "v"))
}

// writeGroupContainer emits a <parentName><GroupName>GroupEncoder/Decoder
// pair wrapping grp's group header (spec.md §3, repeating groups) and
// exposing entry iteration: AppendEntry for the encoder side, Next/HasNext
// for the decoder side, each constructing one childSpec entry block.
func (g *generator) writeGroupContainer(b *strings.Builder, parentName string, grp schema.Group, childSpec blockSpec) {
	base := parentName + exportName(grp.Name)
	encType := base + "GroupEncoder"
	decType := base + "GroupDecoder"
	entryEncType := childSpec.name + "Encoder"
	entryDecType := childSpec.name + "Decoder"
	blWidth := g.s.GroupSpec.BlockLengthWidth
	niWidth := g.s.GroupSpec.NumInGroupWidth

	fmt.Fprintf(b, `type %s struct {
	buf wire.Buffer
	engine wire.EndianEngine
	headerOffset int
	count uint16
}

// New%s writes this group's header (numInGroup starts at 0 and is patched
// in place as entries are appended) and returns a container ready for
// AppendEntry.
func New%s(buf wire.Buffer, engine wire.EndianEngine) (%s, error) {
	offset, err := wire.EncodeGroupHeader(buf, %s, engine, wire.GroupHeader{BlockLength: %d, NumInGroup: 0})
	if err != nil {
		return %s{}, err
	}
	return %s{buf: buf, engine: engine, headerOffset: offset}, nil
}

// AppendEntry reserves and returns the next entry's encoder, patching the
// group header's numInGroup count in place as it goes.
func (c *%s) AppendEntry() (%s, error) {
	e, err := New%s(c.buf)
	if err != nil {
		return %s{}, err
	}
	c.count++
	data := make([]byte, %d)
	if err := wire.PutUint(data, uint64(c.count), %d, c.engine); err != nil {
		return %s{}, err
	}
	if err := c.buf.WriteAt(c.headerOffset+%d, data); err != nil {
		return %s{}, err
	}
	return e, nil
}

`, encType,
		encType, encType, encType, g.groupSpecExpr(), childSpec.blockLength, encType, encType,
		encType, entryEncType, entryEncType, entryEncType,
		niWidth, niWidth, entryEncType, blWidth, entryEncType)

	fmt.Fprintf(b, `type %s struct {
	buf wire.Buffer
	engine wire.EndianEngine
	actingVersion uint16
	cursor int
	remaining uint16
	blockLength int
}

// New%s reads this group's header at offset and returns a container ready
// for Next/HasNext iteration.
func New%s(buf wire.Buffer, offset int, actingVersion uint16) (%s, int, error) {
	h, next, err := wire.DecodeGroupHeader(buf, offset, %s, %s)
	if err != nil {
		return %s{}, offset, err
	}
	return %s{buf: buf, engine: %s, actingVersion: actingVersion, cursor: next, remaining: h.NumInGroup, blockLength: int(h.BlockLength)}, next, nil
}

func (c *%s) HasNext() bool { return c.remaining > 0 }

// Next decodes the next entry and advances past its fixed block only;
// callers that also read var-data or nested groups from the returned entry
// must call Skip with the extra bytes consumed before the next Next.
func (c *%s) Next() (%s, error) {
	if c.remaining == 0 {
		return %s{}, errs.ErrNoMoreGroupEntries
	}
	entry := New%s(c.buf, c.cursor, c.actingVersion)
	c.cursor += c.blockLength
	c.remaining--
	return entry, nil
}

// Skip advances the cursor by n bytes of var-data/nested-group content
// already consumed from the most recently returned entry.
func (c *%s) Skip(n int) { c.cursor += n }

`, decType,
		decType, decType, decType, g.groupSpecExpr(), g.engineExpr(), decType, decType, g.engineExpr(),
		decType,
		decType, entryDecType, entryDecType, entryDecType,
		decType)
}

func primitiveBaseOfRaw(t *schema.TypeDef) schema.PrimitiveBase {
	switch t.Kind {
	case schema.KindEnum:
		return t.Enum.Base
	case schema.KindSet:
		return t.Set.Base
	default:
		return t.Primitive.Base
	}
}

func rawGoType(t *schema.TypeDef) string {
	return goPrimitive(primitiveBaseOfRaw(t))
}

// scalarCast converts expr, a value of t's generated field type (the named
// enum/set type, or a bare primitive), down to the raw primitive Go type
// the matching wire.Write<Base> function expects.
func scalarCast(t *schema.TypeDef, expr string) string {
	switch t.Kind {
	case schema.KindEnum, schema.KindSet:
		return fmt.Sprintf("%s(%s)", rawGoType(t), expr)
	default:
		return expr
	}
}

// namedCast converts expr, a value already asserted to t's raw primitive Go
// type, up to t's generated field type (the named enum/set type, or the
// bare primitive unchanged).
func namedCast(t *schema.TypeDef, expr string) string {
	switch t.Kind {
	case schema.KindEnum, schema.KindSet:
		return fmt.Sprintf("%s(%s)", exportName(t.Name), expr)
	default:
		return expr
	}
}

func baseConstName(b schema.PrimitiveBase) string {
	switch b {
	case schema.I8:
		return "I8"
	case schema.I16:
		return "I16"
	case schema.I32:
		return "I32"
	case schema.I64:
		return "I64"
	case schema.U8:
		return "U8"
	case schema.U16:
		return "U16"
	case schema.U32:
		return "U32"
	case schema.U64:
		return "U64"
	case schema.F32:
		return "F32"
	case schema.F64:
		return "F64"
	case schema.Char:
		return "Char"
	default:
		return "U8"
	}
}

// singleByteBase reports whether base's wire.Read<Base>/wire.Write<Base>
// pair takes no EndianEngine argument, since a one-byte value has no byte
// order to apply.
func singleByteBase(b schema.PrimitiveBase) bool {
	return b == schema.I8 || b == schema.U8 || b == schema.Char
}

// readScalarCall builds a call to the concrete wire.Read<Base> function for
// base, omitting the engine argument for single-byte bases.
func readScalarCall(base schema.PrimitiveBase, buf, offset, engine string) string {
	if singleByteBase(base) {
		return fmt.Sprintf("wire.Read%s(%s, %s)", baseConstName(base), buf, offset)
	}

	return fmt.Sprintf("wire.Read%s(%s, %s, %s)", baseConstName(base), buf, offset, engine)
}

// writeScalarCall builds a call to the concrete wire.Write<Base> function
// for base, omitting the engine argument for single-byte bases.
func writeScalarCall(base schema.PrimitiveBase, buf, offset, engine, valueExpr string) string {
	if singleByteBase(base) {
		return fmt.Sprintf("wire.Write%s(%s, %s, %s)", baseConstName(base), buf, offset, valueExpr)
	}

	return fmt.Sprintf("wire.Write%s(%s, %s, %s, %s)", baseConstName(base), buf, offset, engine, valueExpr)
}
