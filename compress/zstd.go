package compress

// ZstdCodec compresses cache blobs with Zstandard: best ratio of the three,
// and a cold-started schema cache is read far more often than it's written.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}
