package compress

import "github.com/klauspost/compress/s2"

// S2Codec compresses cache blobs with S2, klauspost/compress's
// Snappy-compatible, throughput-oriented codec — the right default when the
// generator is run repeatedly in a tight edit/regenerate loop and cache
// round-trip latency matters more than ratio.
type S2Codec struct{}

var _ Codec = S2Codec{}

func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

func (S2Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}
