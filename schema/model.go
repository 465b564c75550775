// Package schema models a parsed, validated SBE schema (spec.md §3) and
// loads one from its XML source form (spec.md §4.1, §6). The model is
// immutable once Load returns successfully and is safe to share across
// goroutines without locking, per spec.md §3 "Ownership".
package schema

import "github.com/quantforge/sbe/wire"

// ByteOrder is a schema's wire byte order. A schema may declare exactly one;
// mixed byte order within a schema is rejected at load time (spec.md §4.2).
type ByteOrder uint8

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Engine returns the wire.EndianEngine corresponding to this byte order.
func (b ByteOrder) Engine() wire.EndianEngine {
	if b == BigEndian {
		return wire.BigEndian()
	}

	return wire.LittleEndian()
}

func (b ByteOrder) String() string {
	if b == BigEndian {
		return "bigEndian"
	}

	return "littleEndian"
}

// PrimitiveBase is one of SBE's eleven primitive base types (spec.md §3).
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

// Size returns the primitive's encoded width in bytes.
func (p PrimitiveBase) Size() int {
	switch p {
	case I8, U8, Char:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	default:
		return 0
	}
}

// Unsigned reports whether the base type is one of the unsigned integer
// kinds enums and sets are required to use as their underlying type.
func (p PrimitiveBase) Unsigned() bool {
	switch p {
	case U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

// TypeKind discriminates the tagged union a TypeDef represents (spec.md §3).
type TypeKind uint8

const (
	KindPrimitive TypeKind = iota
	KindEnum
	KindSet
	KindComposite
)

// PrimitiveType is a primitive base type with an optional fixed array
// length (≥ 1, 1 meaning a scalar).
type PrimitiveType struct {
	Base   PrimitiveBase
	Length int
}

// Size returns the type's encoded width in bytes (Base.Size() * Length).
func (p PrimitiveType) Size() int { return p.Base.Size() * p.Length }

// EnumValue is one named integer value of an EnumType.
type EnumValue struct {
	Name  string
	Value int64
}

// EnumType is an underlying unsigned primitive plus an ordered, uniquely
// valued set of named values.
type EnumType struct {
	Base   PrimitiveBase
	Values []EnumValue
}

func (e EnumType) Size() int { return e.Base.Size() }

// SetBit is one named bit position of a SetType.
type SetBit struct {
	Name     string
	Position int
}

// SetType (bitset) is an underlying unsigned primitive plus named bit
// positions in [0, width).
type SetType struct {
	Base PrimitiveBase
	Bits []SetBit
}

func (s SetType) Size() int { return s.Base.Size() }

// CompositeField is one named field of a CompositeType, resolved to its
// constituent TypeDef and assigned a byte offset from the composite's start.
type CompositeField struct {
	Name   string
	Type   *TypeDef
	Offset int
}

// CompositeType is an ordered sequence of named fields, each itself a
// primitive, enum, set, or nested composite, with a fixed total size.
type CompositeType struct {
	Fields []CompositeField
	Size   int
}

// TypeDef is a named schema type: exactly one of Primitive, Enum, Set, or
// Composite is populated, selected by Kind. Refs are resolved during
// loading and never appear in the final model; a <ref> simply contributes
// the referenced TypeDef's Kind/fields/Size directly into its containing
// composite or field.
type TypeDef struct {
	Name      string
	Kind      TypeKind
	Primitive *PrimitiveType
	Enum      *EnumType
	Set       *SetType
	Composite *CompositeType
}

// Size returns the type's fixed encoded width in bytes.
func (t *TypeDef) Size() int {
	switch t.Kind {
	case KindPrimitive:
		return t.Primitive.Size()
	case KindEnum:
		return t.Enum.Size()
	case KindSet:
		return t.Set.Size()
	case KindComposite:
		return t.Composite.Size
	default:
		return 0
	}
}

// Field is one root-block or group-block field: a name, its resolved type,
// computed byte offset, and the schema version it was introduced in.
type Field struct {
	Name         string
	Type         *TypeDef
	Offset       int
	SinceVersion uint16
}

// VarDataField is one variable-length data entry: a name and the version it
// was introduced in. Its length-prefix width comes from the schema's
// VarDataSpec (spec.md §9 Open Question (b): not hard-coded per field).
type VarDataField struct {
	Name         string
	SinceVersion uint16
}

// Group is a repeating group: its own block of fields, optionally nested
// groups and var-data, prefixed on the wire by a group header.
type Group struct {
	ID           uint16
	Name         string
	BlockLength  int
	Fields       []Field
	Groups       []Group
	VarData      []VarDataField
	SinceVersion uint16
}

// Message is a named, versioned message template (spec.md §3).
type Message struct {
	Name          string
	ID            uint16
	SchemaVersion uint16
	BlockLength   int
	Fields        []Field
	Groups        []Group
	VarData       []VarDataField
}

// Schema is a named, versioned collection of type definitions and message
// templates (spec.md §3). Schema id and (templateId, version) pairs are
// unique within it; Load enforces this before returning.
type Schema struct {
	ID         uint16
	Version    uint16
	Package    string
	ByteOrder  ByteOrder
	Types      map[string]*TypeDef
	Messages   []*Message
	HeaderSpec wire.HeaderSpec
	GroupSpec  wire.GroupSpec
	VarData    wire.VarDataSpec
}

// MessageByID returns the first message template with the given id, or nil
// if no such template exists (CodecError.UnknownTemplate territory for the
// caller). It takes no version argument and does not select among versions.
func (s *Schema) MessageByID(id uint16) *Message {
	for _, m := range s.Messages {
		if m.ID == id {
			return m
		}
	}

	return nil
}
