package schema

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/quantforge/sbe/internal/hash"
)

// Fingerprint returns an xxHash64 digest of the schema's identity: its id,
// version, byte order, and the (templateId, schemaVersion, blockLength)
// triple of every message template, in declaration order. It does not walk
// the full type tree, only the shape that determines wire compatibility, so
// a CacheStore (cache.go) or a session engine can cheaply ask "is this the
// schema I already compiled against" without re-parsing XML.
//
// Grounded on the teacher's internal/hash package, which hashes metric
// names to ids for O(1) lookup; here the same xxHash64 call is used to
// collapse a schema's identity into a single comparable integer instead of
// a name.
func (s *Schema) Fingerprint() uint64 {
	var b strings.Builder

	b.WriteString(strconv.Itoa(int(s.ID)))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(s.Version)))
	b.WriteByte(':')
	b.WriteString(s.ByteOrder.String())

	for _, m := range s.Messages {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(int(m.ID)))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(int(m.SchemaVersion)))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(m.BlockLength))
	}

	return hash.ID(b.String())
}

// xxhashBytes hashes raw XML bytes to detect whether a cached Schema was
// built from the same source (schema.CacheStore).
func xxhashBytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
