package compress

// NoOpCodec passes cache blobs through unchanged. Useful for tests and for
// disabling compression on a schema cache entirely.
type NoOpCodec struct{}

var _ Codec = NoOpCodec{}

func (NoOpCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (NoOpCodec) Decompress(data []byte) ([]byte, error) { return data, nil }
