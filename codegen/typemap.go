package codegen

import (
	"fmt"

	"github.com/quantforge/sbe/schema"
)

// goPrimitive maps an SBE primitive base to its Go scalar type.
func goPrimitive(b schema.PrimitiveBase) string {
	switch b {
	case schema.I8:
		return "int8"
	case schema.I16:
		return "int16"
	case schema.I32:
		return "int32"
	case schema.I64:
		return "int64"
	case schema.U8:
		return "uint8"
	case schema.U16:
		return "uint16"
	case schema.U32:
		return "uint32"
	case schema.U64:
		return "uint64"
	case schema.F32:
		return "float32"
	case schema.F64:
		return "float64"
	case schema.Char:
		return "byte"
	default:
		return "byte"
	}
}

// nullExpr returns the wire package's null-sentinel expression for a
// primitive base, used by generated decoders when a field's sinceVersion
// exceeds the acting version.
func nullExpr(b schema.PrimitiveBase) string {
	switch b {
	case schema.I8:
		return "wire.NullI8"
	case schema.I16:
		return "wire.NullI16"
	case schema.I32:
		return "wire.NullI32"
	case schema.I64:
		return "wire.NullI64"
	case schema.U8:
		return "wire.NullU8"
	case schema.U16:
		return "wire.NullU16"
	case schema.U32:
		return "wire.NullU32"
	case schema.U64:
		return "wire.NullU64"
	case schema.F32:
		return "wire.NullF32()"
	case schema.F64:
		return "wire.NullF64()"
	case schema.Char:
		return "0"
	default:
		return "0"
	}
}

// nullExprTyped returns a null-sentinel expression already cast to t's
// generated Go type (the enum/set's named type, or the bare primitive).
func nullExprTyped(t *schema.TypeDef) string {
	switch t.Kind {
	case schema.KindEnum:
		return fmt.Sprintf("%s(%s)", exportName(t.Name), nullExpr(t.Enum.Base))
	case schema.KindSet:
		return fmt.Sprintf("%s(%s)", exportName(t.Name), nullExpr(t.Set.Base))
	default:
		return nullExpr(t.Primitive.Base)
	}
}

// fieldGoType returns the Go type a TypeDef decodes/encodes to at the
// generated-code surface: a scalar for a size-1 primitive, []byte for a
// fixed-length char array, the type's own generated name for enum/set/
// composite kinds.
func fieldGoType(t *schema.TypeDef) string {
	switch t.Kind {
	case schema.KindPrimitive:
		if t.Primitive.Length > 1 {
			if t.Primitive.Base == schema.Char {
				return "[]byte"
			}

			return fmt.Sprintf("[]%s", goPrimitive(t.Primitive.Base))
		}

		return goPrimitive(t.Primitive.Base)
	case schema.KindEnum, schema.KindSet:
		return exportName(t.Name)
	case schema.KindComposite:
		return exportName(t.Name)
	default:
		return "byte"
	}
}

// exportName capitalizes the first rune of a schema identifier so it is
// exported Go, without otherwise touching the identifier's casing (schema
// authors already pick PascalCase or camelCase names deliberately).
func exportName(name string) string {
	if name == "" {
		return name
	}

	r := []rune(name)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}

	return string(r)
}
