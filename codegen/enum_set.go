package codegen

import (
	"fmt"
	"strings"

	"github.com/quantforge/sbe/schema"
)

func (g *generator) writeEnum(b *strings.Builder, t *schema.TypeDef) {
	name := exportName(t.Name)
	goType := goPrimitive(t.Enum.Base)

	fmt.Fprintf(b, "// %s is a generated enum over %s.\n", name, goType)
	fmt.Fprintf(b, "type %s %s\n\n", name, goType)

	fmt.Fprintf(b, "const (\n")

	for _, v := range t.Enum.Values {
		fmt.Fprintf(b, "\t%s%s %s = %d\n", name, exportName(v.Name), name, v.Value)
	}

	fmt.Fprintf(b, ")\n\n")

	fmt.Fprintf(b, "func (v %s) String() string {\n\tswitch v {\n", name)

	for _, v := range t.Enum.Values {
		fmt.Fprintf(b, "\tcase %s%s:\n\t\treturn %q\n", name, exportName(v.Name), v.Name)
	}

	fmt.Fprintf(b, "\tdefault:\n\t\treturn \"unknown\"\n\t}\n}\n\n")
}

func (g *generator) writeSet(b *strings.Builder, t *schema.TypeDef) {
	name := exportName(t.Name)
	goType := goPrimitive(t.Set.Base)

	fmt.Fprintf(b, "// %s is a generated bitset over %s.\n", name, goType)
	fmt.Fprintf(b, "type %s %s\n\n", name, goType)

	for _, bit := range t.Set.Bits {
		fmt.Fprintf(b, "func (v %s) %s() bool { return v&(1<<%d) != 0 }\n\n", name, exportName(bit.Name), bit.Position)
		fmt.Fprintf(b, "func (v %s) With%s() %s { return v | (1 << %d) }\n\n", name, exportName(bit.Name), name, bit.Position)
	}
}
