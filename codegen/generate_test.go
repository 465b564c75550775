package codegen_test

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/codegen"
	"github.com/quantforge/sbe/schema"
)

// orderSchemaXML matches spec.md §8 scenario 1 (mirrors schema/loader_test.go's
// fixture of the same name): a single "Order" template with a scalar/array
// block and no repeating groups or var-data.
const orderSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<messageSchema id="1" version="0" byteOrder="littleEndian" package="example">
  <types>
    <enum name="Side" encodingType="uint8">
      <validValue name="Buy">0</validValue>
      <validValue name="Sell">1</validValue>
    </enum>
  </types>
  <message id="1" name="Order" blockLength="48">
    <field id="1" name="clOrdId" type="char" offset="0" length="20"/>
    <field id="2" name="symbol" type="char" offset="20" length="8"/>
    <field id="3" name="side" type="Side" offset="28"/>
    <field id="4" name="price" type="int64" offset="29"/>
    <field id="5" name="quantity" type="uint64" offset="37"/>
  </message>
</messageSchema>`

// marketDataSchemaXML adds a repeating group (nested one level) and a
// var-data field so the generator's group-container and var-data paths are
// both exercised.
const marketDataSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<messageSchema id="2" version="1" byteOrder="littleEndian" package="example">
  <types>
    <enum name="Side" encodingType="uint8">
      <validValue name="Buy">0</validValue>
      <validValue name="Sell">1</validValue>
    </enum>
  </types>
  <message id="2" name="MarketSnapshot" blockLength="8">
    <field id="1" name="instrumentId" type="uint64" offset="0"/>
    <group id="2" name="Levels" blockLength="17">
      <field id="1" name="price" type="int64" offset="0"/>
      <field id="2" name="side" type="Side" offset="8"/>
      <field id="3" name="quantity" type="uint64" offset="9"/>
    </group>
    <data name="venue" type="varDataEncoding"/>
  </message>
</messageSchema>`

func TestGenerateSource_OrderSchema_ProducesValidGo(t *testing.T) {
	s, err := schema.Parse([]byte(orderSchemaXML))
	require.NoError(t, err)

	src, err := codegen.GenerateSource(s)
	require.NoError(t, err)

	assertSyntacticallyValid(t, src)

	text := string(src)
	require.Contains(t, text, "type OrderEncoder struct")
	require.Contains(t, text, "type OrderDecoder struct")
	require.Contains(t, text, "func (e *OrderEncoder) SetPrice(v int64) error")
	require.Contains(t, text, "func (d *OrderDecoder) Side() (Side, error)")
	require.Contains(t, text, "OrderTemplateID    uint16 = 1")
	require.NotContains(t, text, `"github.com/quantforge/sbe/errs"`, "no groups in this schema, errs import must be omitted")
}

// quoteSchemaXML declares a "Price" composite (mantissa/exponent) and
// embeds it as a message field, exercising the composite view generator.
const quoteSchemaXML = `<?xml version="1.0" encoding="UTF-8"?>
<messageSchema id="3" version="0" byteOrder="littleEndian" package="example">
  <types>
    <composite name="Price">
      <type name="mantissa" primitiveType="int64"/>
      <type name="exponent" primitiveType="int8"/>
    </composite>
  </types>
  <message id="3" name="Quote" blockLength="9">
    <field id="1" name="price" type="Price" offset="0"/>
  </message>
</messageSchema>`

func TestGenerateSource_Composite_ProducesValidGo(t *testing.T) {
	s, err := schema.Parse([]byte(quoteSchemaXML))
	require.NoError(t, err)

	src, err := codegen.GenerateSource(s)
	require.NoError(t, err)

	assertSyntacticallyValid(t, src)

	text := string(src)
	require.Contains(t, text, "type Price struct")
	require.Contains(t, text, "func NewPrice(buf wire.Buffer, offset int, engine wire.EndianEngine) Price")
	require.Contains(t, text, "func (v Price) Mantissa() (int64, error)")
	require.Contains(t, text, "func (v Price) SetExponent(val int8) error")
	require.Contains(t, text, "func (e *QuoteEncoder) Price() Price")
	require.Contains(t, text, "func (d *QuoteDecoder) Price() Price")
}

func TestGenerateSource_GroupAndVarData_ProducesValidGo(t *testing.T) {
	s, err := schema.Parse([]byte(marketDataSchemaXML))
	require.NoError(t, err)

	src, err := codegen.GenerateSource(s)
	require.NoError(t, err)

	assertSyntacticallyValid(t, src)

	text := string(src)
	require.Contains(t, text, "type MarketSnapshotLevelsGroupEncoder struct")
	require.Contains(t, text, "type MarketSnapshotLevelsGroupDecoder struct")
	require.Contains(t, text, "func (c *MarketSnapshotLevelsGroupEncoder) AppendEntry() (MarketSnapshotLevelsEncoder, error)")
	require.Contains(t, text, "func (c *MarketSnapshotLevelsGroupDecoder) Next() (MarketSnapshotLevelsDecoder, error)")
	require.Contains(t, text, "func (e *MarketSnapshotEncoder) SetVenue(data []byte) error")
	require.Contains(t, text, `"github.com/quantforge/sbe/errs"`, "this schema has a group so Next's error path needs errs")
}

func assertSyntacticallyValid(t *testing.T, src []byte) {
	t.Helper()

	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "generated.go", src, parser.AllErrors)
	require.NoError(t, err, "generated source must parse as valid Go:\n%s", strings.TrimSpace(string(src)))
}
