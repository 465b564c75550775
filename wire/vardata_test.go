package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/wire"
)

func TestVarData_RoundTrip_U32Prefix(t *testing.T) {
	buf := wire.NewPoolBuffer(newPoolBuf(32))
	spec := wire.DefaultVarDataSpec()
	engine := wire.LittleEndian()

	payload := []byte("AAPL order note")

	offset, err := wire.AppendVarData(buf, spec, engine, payload)
	require.NoError(t, err)
	require.Equal(t, 0, offset)

	got, next, err := wire.ReadVarData(buf, 0, spec, engine)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, 4+len(payload), next)
}

func TestVarData_RoundTrip_U16Prefix(t *testing.T) {
	buf := wire.NewPoolBuffer(newPoolBuf(32))
	spec := wire.VarDataSpec{LengthWidth: 2}
	engine := wire.LittleEndian()

	payload := []byte("AAPL")

	_, err := wire.AppendVarData(buf, spec, engine, payload)
	require.NoError(t, err)

	got, next, err := wire.ReadVarData(buf, 0, spec, engine)
	require.NoError(t, err)
	require.Equal(t, payload, got)
	require.Equal(t, 2+len(payload), next)
}

func TestVarData_OversizeRejected(t *testing.T) {
	buf := wire.NewPoolBuffer(newPoolBuf(16))
	spec := wire.VarDataSpec{LengthWidth: 2}
	engine := wire.LittleEndian()

	oversized := make([]byte, wire.MaxVarDataLength+1)
	_, err := wire.AppendVarData(buf, spec, engine, oversized)
	require.Error(t, err)
}

func TestAlignedBuffer_WriteAt_RespectsCapacity(t *testing.T) {
	ab := wire.NewAlignedBuffer(16)

	require.NoError(t, ab.WriteAt(0, []byte{1, 2, 3, 4}))
	require.Equal(t, []byte{1, 2, 3, 4}, ab.Bytes())

	err := ab.WriteAt(0, make([]byte, ab.Cap()+1))
	require.Error(t, err)
}

func TestAlignedBuffer_Append(t *testing.T) {
	ab := wire.NewAlignedBuffer(16)

	off, err := ab.Append([]byte{9, 9})
	require.NoError(t, err)
	require.Equal(t, 0, off)

	off2, err := ab.Append([]byte{8})
	require.NoError(t, err)
	require.Equal(t, 2, off2)

	require.Equal(t, []byte{9, 9, 8}, ab.Bytes())
}
