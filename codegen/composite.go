package codegen

import (
	"fmt"
	"strings"

	"github.com/quantforge/sbe/schema"
)

// writeComposite emits a view type for a composite: a thin (buf, offset,
// engine) wrapper with one Get/Set method pair per constituent field. Unlike
// a message block, a composite has no template id of its own and is never
// constructed at the top of a buffer — it is always reached through an
// enclosing block's field accessor, so its constructor takes the offset the
// caller has already computed.
func (g *generator) writeComposite(b *strings.Builder, t *schema.TypeDef) {
	name := exportName(t.Name)

	fmt.Fprintf(b, "// %s is a generated composite view over a fixed-offset span of a shared buffer.\n", name)
	fmt.Fprintf(b, "type %s struct {\n\tbuf wire.Buffer\n\toffset int\n\tengine wire.EndianEngine\n}\n\n", name)

	fmt.Fprintf(b, "func New%s(buf wire.Buffer, offset int, engine wire.EndianEngine) %s {\n\treturn %s{buf: buf, offset: offset, engine: engine}\n}\n\n",
		name, name, name)

	for _, f := range t.Composite.Fields {
		g.writeCompositeFieldAccessors(b, name, f)
	}
}

func (g *generator) writeCompositeFieldAccessors(b *strings.Builder, ownerName string, f schema.CompositeField) {
	fieldName := exportName(f.Name)
	goType := fieldGoType(f.Type)

	if f.Type.Kind == schema.KindComposite {
		fmt.Fprintf(b, "func (v %s) %s() %s { return New%s(v.buf, v.offset+%d, v.engine) }\n\n",
			ownerName, fieldName, goType, goType, f.Offset)

		return
	}

	if f.Type.Kind == schema.KindPrimitive && f.Type.Primitive.Length > 1 {
		fmt.Fprintf(b, `func (v %s) %s() (%s, error) {
	return v.buf.ReadAt(v.offset+%d, %d)
}

func (v %s) Set%s(val %s) error {
	data := make([]byte, %d)
	copy(data, val)
	return v.buf.WriteAt(v.offset+%d, data)
}

`, ownerName, fieldName, goType, f.Offset, f.Type.Size(),
			ownerName, fieldName, goType, f.Type.Size(), f.Offset)

		return
	}

	base := primitiveBaseOfRaw(f.Type)
	null := nullExprTyped(f.Type)

	fmt.Fprintf(b, `func (v %s) %s() (%s, error) {
	raw, err := %s
	if err != nil {
		return %s, err
	}
	return %s, nil
}

func (v %s) Set%s(val %s) error {
	return %s
}

`, ownerName, fieldName, goType,
		readScalarCall(base, "v.buf", fmt.Sprintf("v.offset+%d", f.Offset), "v.engine"),
		null, namedCast(f.Type, "raw"),
		ownerName, fieldName, goType,
		writeScalarCall(base, "v.buf", fmt.Sprintf("v.offset+%d", f.Offset), "v.engine", scalarCast(f.Type, "val")))
}
