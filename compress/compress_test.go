package compress_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantforge/sbe/compress"
)

func TestCodecs_RoundTrip(t *testing.T) {
	data := []byte("a schema cache blob, repeated repeated repeated repeated")

	for _, typ := range []compress.Type{compress.None, compress.Zstd, compress.S2, compress.LZ4} {
		t.Run(typ.String(), func(t *testing.T) {
			codec, err := compress.New(typ)
			require.NoError(t, err)

			compressed, err := codec.Compress(data)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, decompressed)
		})
	}
}

func TestNew_UnknownType(t *testing.T) {
	_, err := compress.New(compress.Type(99))
	require.Error(t, err)
}
