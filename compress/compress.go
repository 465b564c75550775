// Package compress provides pluggable compression for the schema loader's
// on-disk parse cache (schema.CacheStore). SBE's wire format is explicitly
// uncompressed (spec.md §6: "No magic, no checksum, no compression") so
// nothing here ever touches a message on the wire; it only compresses the
// serialized schema model between a code-generation run and the next one,
// so a multi-megabyte exchange schema doesn't get re-parsed from XML on
// every invocation of the generator.
package compress

import "fmt"

// Type selects a compression algorithm for a cached schema blob.
type Type uint8

const (
	None Type = iota
	Zstd
	S2
	LZ4
)

func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Zstd:
		return "Zstd"
	case S2:
		return "S2"
	case LZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Codec compresses and decompresses a cache blob.
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// New returns the Codec for the given compression type.
func New(t Type) (Codec, error) {
	switch t {
	case None:
		return NoOpCodec{}, nil
	case Zstd:
		return ZstdCodec{}, nil
	case S2:
		return S2Codec{}, nil
	case LZ4:
		return LZ4Codec{}, nil
	default:
		return nil, fmt.Errorf("compress: unknown type %d", t)
	}
}
