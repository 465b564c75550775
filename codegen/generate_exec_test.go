package codegen_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/codegen"
	"github.com/quantforge/sbe/schema"
)

// moduleRoot walks up from this test file's own location to find the
// repository root, the same trick used to locate this module for the
// replace directive below without shelling out to "go env".
func moduleRoot(t *testing.T) string {
	t.Helper()

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller must resolve this file's path")

	return filepath.Dir(filepath.Dir(file))
}

// harnessMain is compiled and run against the generator's actual output: it
// writes a MessageHeader plus an Order root block through the generated
// OrderEncoder, then decodes both back through wire.Decode and the
// generated OrderDecoder, checking every byte-level and value-level
// assertion from the worked end-to-end scenario (encoded_length()==56,
// bytes[0..2]==[48,0], bytes[2..4]==[1,0], and an exact field round-trip).
// It prints "PASS" on success or "FAIL: <reason>" and exits non-zero
// otherwise, so the test driving it only has to check the process result.
const harnessMain = `package main

import (
	"bytes"
	"fmt"
	"os"

	gen "tmpgen/genpkg"

	"github.com/quantforge/sbe/wire"
)

func fail(format string, args ...any) {
	fmt.Printf("FAIL: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	buf := wire.NewAlignedBuffer(64)
	engine := wire.LittleEndian()
	spec := wire.DefaultHeaderSpec()

	if _, err := wire.Encode(buf, 0, spec, engine, wire.MessageHeader{
		BlockLength: 48,
		TemplateID:  gen.OrderTemplateID,
		SchemaID:    0,
		Version:     gen.OrderSchemaVersion,
	}); err != nil {
		fail("encode header: %v", err)
	}

	enc, err := gen.NewOrderEncoder(buf)
	if err != nil {
		fail("new encoder: %v", err)
	}

	clOrdId := make([]byte, 20)
	copy(clOrdId, "ORDER-001")
	symbol := make([]byte, 8)
	copy(symbol, "AAPL")

	if err := enc.SetClOrdId(clOrdId); err != nil {
		fail("SetClOrdId: %v", err)
	}
	if err := enc.SetSymbol(symbol); err != nil {
		fail("SetSymbol: %v", err)
	}
	if err := enc.SetSide(gen.SideBuy); err != nil {
		fail("SetSide: %v", err)
	}
	if err := enc.SetPrice(15050); err != nil {
		fail("SetPrice: %v", err)
	}
	if err := enc.SetQuantity(100); err != nil {
		fail("SetQuantity: %v", err)
	}

	if got := enc.EncodedLength(); got != 48 {
		fail("root block EncodedLength() = %d, want 48", got)
	}
	if got := buf.Len(); got != 56 {
		fail("total encoded length = %d, want 56", got)
	}

	raw := buf.Bytes()
	if !bytes.Equal(raw[0:2], []byte{48, 0}) {
		fail("bytes[0:2] = %v, want [48 0]", raw[0:2])
	}
	if !bytes.Equal(raw[2:4], []byte{1, 0}) {
		fail("bytes[2:4] = %v, want [1 0]", raw[2:4])
	}

	header, next, err := wire.Decode(buf, 0, spec, engine)
	if err != nil {
		fail("decode header: %v", err)
	}
	if header.TemplateID != gen.OrderTemplateID {
		fail("decoded TemplateID = %d, want %d", header.TemplateID, gen.OrderTemplateID)
	}
	if header.BlockLength != 48 {
		fail("decoded BlockLength = %d, want 48", header.BlockLength)
	}

	dec := gen.NewOrderDecoder(buf, next, header.Version)

	gotClOrdId, err := dec.ClOrdId()
	if err != nil {
		fail("ClOrdId: %v", err)
	}
	if !bytes.Equal(gotClOrdId, clOrdId) {
		fail("ClOrdId() = %q, want %q", gotClOrdId, clOrdId)
	}

	gotSymbol, err := dec.Symbol()
	if err != nil {
		fail("Symbol: %v", err)
	}
	if !bytes.Equal(gotSymbol, symbol) {
		fail("Symbol() = %q, want %q", gotSymbol, symbol)
	}

	gotSide, err := dec.Side()
	if err != nil {
		fail("Side: %v", err)
	}
	if gotSide != gen.SideBuy {
		fail("Side() = %v, want %v", gotSide, gen.SideBuy)
	}

	gotPrice, err := dec.Price()
	if err != nil {
		fail("Price: %v", err)
	}
	if gotPrice != 15050 {
		fail("Price() = %d, want 15050", gotPrice)
	}

	gotQuantity, err := dec.Quantity()
	if err != nil {
		fail("Quantity: %v", err)
	}
	if gotQuantity != 100 {
		fail("Quantity() = %d, want 100", gotQuantity)
	}

	if got := dec.EncodedLength(); got != 48 {
		fail("decoder EncodedLength() = %d, want 48", got)
	}

	fmt.Println("PASS")
}
`

// TestGenerateSource_OrderSchema_RoundTripsThroughRealCompiledCode compiles
// and executes the generator's actual output against spec scenario 1
// (clOrdId/symbol/side/price/quantity, encoded_length()==56,
// bytes[0..2]==[48,0]) rather than only checking that the source parses.
// It requires a working "go" toolchain on PATH; it never invokes go build/
// test/vet against this module itself, only against a throwaway module in
// t.TempDir() that imports this module by local replace, so it can run
// fully offline.
func TestGenerateSource_OrderSchema_RoundTripsThroughRealCompiledCode(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available on PATH")
	}

	s, err := schema.Parse([]byte(orderSchemaXML))
	require.NoError(t, err)

	src, err := codegen.GenerateSource(s)
	require.NoError(t, err)

	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "genpkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "genpkg", "generated.go"), src, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(harnessMain), 0o644))

	goMod := fmt.Sprintf(`module tmpgen

go 1.24

require github.com/quantforge/sbe v0.0.0

replace github.com/quantforge/sbe => %s
`, moduleRoot(t))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte(goMod), 0o644))

	cmd := exec.Command("go", "run", ".")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GOFLAGS=-mod=mod", "GOPROXY=off")

	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "generated code failed to build/run:\n%s", string(out))
	require.True(t, strings.Contains(string(out), "PASS"), "unexpected output:\n%s", string(out))
}
