package schema

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/quantforge/sbe/errs"
	"github.com/quantforge/sbe/internal/idset"
	"github.com/quantforge/sbe/wire"
)

var builtinPrimitives = map[string]PrimitiveBase{
	"int8": I8, "int16": I16, "int32": I32, "int64": I64,
	"uint8": U8, "uint16": U16, "uint32": U32, "uint64": U64,
	"float": F32, "double": F64, "char": Char,
}

// Load reads and parses the XML schema at path, validates it, and returns
// the immutable model (spec.md §4.1).
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", errs.ErrParseError, path, err)
	}

	return Parse(data)
}

// Parse parses XML schema bytes directly, without touching the filesystem.
func Parse(data []byte) (*Schema, error) {
	var doc xmlSchema
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrParseError, err)
	}

	byteOrder, err := parseByteOrder(doc.ByteOrder)
	if err != nil {
		return nil, err
	}

	r := newResolver(&doc)
	if err := r.resolveAll(); err != nil {
		return nil, err
	}

	s := &Schema{
		ID:         doc.ID,
		Version:    doc.Version,
		Package:    doc.Package,
		ByteOrder:  byteOrder,
		Types:      r.resolved,
		HeaderSpec: wire.DefaultHeaderSpec(),
		GroupSpec:  wire.DefaultGroupSpec(),
		VarData:    wire.DefaultVarDataSpec(),
	}

	idTracker := idset.NewTracker(len(doc.Messages))

	for _, xm := range doc.Messages {
		msg, err := r.buildMessage(xm)
		if err != nil {
			return nil, err
		}

		key := uint64(msg.ID)<<32 | uint64(doc.Version)
		if idTracker.Add(key) {
			return nil, fmt.Errorf("%w: templateId %d, version %d", errs.ErrDuplicateID, msg.ID, doc.Version)
		}

		s.Messages = append(s.Messages, msg)
	}

	if err := validate(s); err != nil {
		return nil, err
	}

	return s, nil
}

func parseByteOrder(s string) (ByteOrder, error) {
	switch s {
	case "littleEndian", "":
		return LittleEndian, nil
	case "bigEndian":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("%w: %q", errs.ErrInvalidByteOrder, s)
	}
}

// resolver resolves <type>/<enum>/<set>/<composite> declarations into
// TypeDefs, following <ref> and <type type="..."/> symbolic references and
// detecting both unresolved names and reference cycles.
type resolver struct {
	doc        *xmlSchema
	primitives map[string]xmlType
	enums      map[string]xmlEnum
	sets       map[string]xmlSet
	composites map[string]xmlComposite
	resolved   map[string]*TypeDef
	inProgress map[string]bool
}

func newResolver(doc *xmlSchema) *resolver {
	r := &resolver{
		doc:        doc,
		primitives: make(map[string]xmlType),
		enums:      make(map[string]xmlEnum),
		sets:       make(map[string]xmlSet),
		composites: make(map[string]xmlComposite),
		resolved:   make(map[string]*TypeDef),
		inProgress: make(map[string]bool),
	}

	for _, t := range doc.Types.Types {
		r.primitives[t.Name] = t
	}
	for _, e := range doc.Types.Enums {
		r.enums[e.Name] = e
	}
	for _, st := range doc.Types.Sets {
		r.sets[st.Name] = st
	}
	for _, c := range doc.Types.Composites {
		r.composites[c.Name] = c
	}

	return r
}

func (r *resolver) resolveAll() error {
	for name := range r.primitives {
		if _, err := r.resolve(name); err != nil {
			return err
		}
	}
	for name := range r.enums {
		if _, err := r.resolve(name); err != nil {
			return err
		}
	}
	for name := range r.sets {
		if _, err := r.resolve(name); err != nil {
			return err
		}
	}
	for name := range r.composites {
		if _, err := r.resolve(name); err != nil {
			return err
		}
	}

	return nil
}

// resolve returns the TypeDef for name, which may be a builtin primitive
// name or a schema-declared <type>/<enum>/<set>/<composite> name.
func (r *resolver) resolve(name string) (*TypeDef, error) {
	if base, ok := builtinPrimitives[name]; ok {
		return &TypeDef{Name: name, Kind: KindPrimitive, Primitive: &PrimitiveType{Base: base, Length: 1}}, nil
	}

	if td, ok := r.resolved[name]; ok {
		return td, nil
	}

	if r.inProgress[name] {
		return nil, fmt.Errorf("%w: cycle involving %q", errs.ErrUnresolvedReference, name)
	}
	r.inProgress[name] = true
	defer delete(r.inProgress, name)

	var (
		td  *TypeDef
		err error
	)

	switch {
	case hasKey(r.primitives, name):
		td, err = r.resolveAliasType(r.primitives[name])
	case hasKey(r.enums, name):
		td, err = r.resolveEnum(r.enums[name])
	case hasKey(r.sets, name):
		td, err = r.resolveSet(r.sets[name])
	case hasKey(r.composites, name):
		td, err = r.resolveComposite(r.composites[name])
	default:
		return nil, fmt.Errorf("%w: %q", errs.ErrUnresolvedReference, name)
	}

	if err != nil {
		return nil, err
	}

	r.resolved[name] = td

	return td, nil
}

func hasKey[V any](m map[string]V, k string) bool {
	_, ok := m[k]
	return ok
}

func (r *resolver) resolveAliasType(t xmlType) (*TypeDef, error) {
	base, ok := builtinPrimitives[t.PrimitiveType]
	if !ok {
		return nil, fmt.Errorf("%w: %q has unknown primitiveType %q", errs.ErrUnresolvedReference, t.Name, t.PrimitiveType)
	}

	length := t.Length
	if length == 0 {
		length = 1
	}

	return &TypeDef{Name: t.Name, Kind: KindPrimitive, Primitive: &PrimitiveType{Base: base, Length: length}}, nil
}

func (r *resolver) resolveEnum(e xmlEnum) (*TypeDef, error) {
	base, ok := builtinPrimitives[e.EncodingType]
	if !ok || !base.Unsigned() {
		return nil, fmt.Errorf("%w: enum %q must have an unsigned encodingType", errs.ErrInvalidByteOrder, e.Name)
	}

	seen := idset.NewTracker(len(e.ValidValues))
	values := make([]EnumValue, 0, len(e.ValidValues))

	for _, vv := range e.ValidValues {
		n, err := strconv.ParseInt(strings.TrimSpace(vv.Value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: enum %q value %q: %v", errs.ErrParseError, e.Name, vv.Value, err)
		}

		if seen.Add(uint64(n)) {
			return nil, fmt.Errorf("%w: enum %q has duplicate value %d", errs.ErrDuplicateID, e.Name, n)
		}

		values = append(values, EnumValue{Name: vv.Name, Value: n})
	}

	return &TypeDef{Name: e.Name, Kind: KindEnum, Enum: &EnumType{Base: base, Values: values}}, nil
}

func (r *resolver) resolveSet(s xmlSet) (*TypeDef, error) {
	base, ok := builtinPrimitives[s.EncodingType]
	if !ok || !base.Unsigned() {
		return nil, fmt.Errorf("%w: set %q must have an unsigned encodingType", errs.ErrInvalidByteOrder, s.Name)
	}

	width := base.Size() * 8
	seen := idset.NewTracker(len(s.Choices))
	bits := make([]SetBit, 0, len(s.Choices))

	for _, c := range s.Choices {
		pos, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil {
			return nil, fmt.Errorf("%w: set %q bit %q: %v", errs.ErrParseError, s.Name, c.Value, err)
		}

		if pos < 0 || pos >= width {
			return nil, fmt.Errorf("%w: set %q bit position %d out of range [0,%d)", errs.ErrParseError, s.Name, pos, width)
		}

		if seen.Add(uint64(pos)) {
			return nil, fmt.Errorf("%w: set %q has duplicate bit position %d", errs.ErrDuplicateID, s.Name, pos)
		}

		bits = append(bits, SetBit{Name: c.Name, Position: pos})
	}

	return &TypeDef{Name: s.Name, Kind: KindSet, Set: &SetType{Base: base, Bits: bits}}, nil
}

func (r *resolver) resolveComposite(c xmlComposite) (*TypeDef, error) {
	fields := make([]CompositeField, 0, len(c.Fields))
	offset := 0

	for _, f := range c.Fields {
		var (
			ft  *TypeDef
			err error
		)

		if f.IsRef {
			ft, err = r.resolve(f.RefType)
		} else {
			base, ok := builtinPrimitives[f.PrimitiveType]
			if ok {
				length := f.Length
				if length == 0 {
					length = 1
				}
				ft = &TypeDef{Name: f.PrimitiveType, Kind: KindPrimitive, Primitive: &PrimitiveType{Base: base, Length: length}}
			} else {
				ft, err = r.resolve(f.PrimitiveType)
			}
		}

		if err != nil {
			return nil, fmt.Errorf("composite %q field %q: %w", c.Name, f.Name, err)
		}

		fields = append(fields, CompositeField{Name: f.Name, Type: ft, Offset: offset})
		offset += ft.Size()
	}

	return &TypeDef{Name: c.Name, Kind: KindComposite, Composite: &CompositeType{Fields: fields, Size: offset}}, nil
}

// buildMessage resolves a message template's fields, groups, and var-data,
// computing byte offsets (spec.md §3 "Message template" invariants).
func (r *resolver) buildMessage(xm xmlMessage) (*Message, error) {
	fields, computedSize, err := r.buildFields(xm.Fields)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", xm.Name, err)
	}

	blockLength := xm.BlockLength
	if blockLength == 0 {
		blockLength = computedSize
	}

	groups, err := r.buildGroups(xm.Groups)
	if err != nil {
		return nil, fmt.Errorf("message %q: %w", xm.Name, err)
	}

	varData := buildVarData(xm.Data)

	return &Message{
		Name:          xm.Name,
		ID:            xm.ID,
		SchemaVersion: r.doc.Version,
		BlockLength:   blockLength,
		Fields:        fields,
		Groups:        groups,
		VarData:       varData,
	}, nil
}

func (r *resolver) buildFields(xfields []xmlField) ([]Field, int, error) {
	fields := make([]Field, 0, len(xfields))
	offset := 0

	for _, xf := range xfields {
		var (
			ft  *TypeDef
			err error
		)

		if base, ok := builtinPrimitives[xf.Type]; ok && xf.Length > 1 {
			ft = &TypeDef{Name: xf.Type, Kind: KindPrimitive, Primitive: &PrimitiveType{Base: base, Length: xf.Length}}
		} else {
			ft, err = r.resolve(xf.Type)
		}

		if err != nil {
			return nil, 0, fmt.Errorf("field %q: %w", xf.Name, err)
		}

		fieldOffset := offset
		if xf.Offset != nil {
			if *xf.Offset != offset {
				return nil, 0, fmt.Errorf("%w: field %q declared offset %d, computed %d", errs.ErrOffsetMismatch, xf.Name, *xf.Offset, offset)
			}
			fieldOffset = *xf.Offset
		}

		fields = append(fields, Field{Name: xf.Name, Type: ft, Offset: fieldOffset, SinceVersion: xf.SinceVersion})
		offset = fieldOffset + ft.Size()
	}

	return fields, offset, nil
}

func (r *resolver) buildGroups(xgroups []xmlGroup) ([]Group, error) {
	groups := make([]Group, 0, len(xgroups))

	for _, xg := range xgroups {
		fields, computedSize, err := r.buildFields(xg.Fields)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", xg.Name, err)
		}

		blockLength := xg.BlockLength
		if blockLength == 0 {
			blockLength = computedSize
		}

		nested, err := r.buildGroups(xg.Groups)
		if err != nil {
			return nil, err
		}

		groups = append(groups, Group{
			ID:           xg.ID,
			Name:         xg.Name,
			BlockLength:  blockLength,
			Fields:       fields,
			Groups:       nested,
			VarData:      buildVarData(xg.Data),
			SinceVersion: xg.SinceVersion,
		})
	}

	return groups, nil
}

func buildVarData(xdata []xmlData) []VarDataField {
	vd := make([]VarDataField, 0, len(xdata))
	for _, xd := range xdata {
		vd = append(vd, VarDataField{Name: xd.Name, SinceVersion: xd.SinceVersion})
	}

	return vd
}
