package wire_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/wire"
)

func TestMessageHeader_EncodeDecode_RoundTrip(t *testing.T) {
	buf := wire.NewPoolBuffer(newPoolBuf(64))
	spec := wire.DefaultHeaderSpec()
	engine := wire.LittleEndian()

	h := wire.MessageHeader{BlockLength: 48, TemplateID: 1, SchemaID: 7, Version: 2}

	next, err := wire.Encode(buf, 0, spec, engine, h)
	require.NoError(t, err)
	require.Equal(t, 8, next)

	got, next2, err := wire.Decode(buf, 0, spec, engine)
	require.NoError(t, err)
	require.Equal(t, 8, next2)
	require.Equal(t, h, got)
}

func TestMessageHeader_Endianness(t *testing.T) {
	buf := wire.NewPoolBuffer(newPoolBuf(8))

	_, err := wire.Encode(buf, 0, wire.DefaultHeaderSpec(), wire.LittleEndian(), wire.MessageHeader{BlockLength: 48, TemplateID: 1})
	require.NoError(t, err)
	require.Equal(t, []byte{48, 0}, buf.Bytes()[0:2])
	require.Equal(t, []byte{1, 0}, buf.Bytes()[2:4])

	bigBuf := wire.NewPoolBuffer(newPoolBuf(8))
	_, err = wire.Encode(bigBuf, 0, wire.DefaultHeaderSpec(), wire.BigEndian(), wire.MessageHeader{BlockLength: 48, TemplateID: 1})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 48}, bigBuf.Bytes()[0:2])
}

func TestGroupHeader_RoundTrip(t *testing.T) {
	buf := wire.NewPoolBuffer(newPoolBuf(16))
	spec := wire.DefaultGroupSpec()
	engine := wire.LittleEndian()

	offset, err := wire.EncodeGroupHeader(buf, spec, engine, wire.GroupHeader{BlockLength: 12, NumInGroup: 2})
	require.NoError(t, err)
	require.Equal(t, 0, offset)

	got, next, err := wire.DecodeGroupHeader(buf, 0, spec, engine)
	require.NoError(t, err)
	require.Equal(t, 4, next)
	require.Equal(t, wire.GroupHeader{BlockLength: 12, NumInGroup: 2}, got)
}
