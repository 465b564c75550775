package schema

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/quantforge/sbe/compress"
)

// cacheEnvelope is the gob-serialized form of a validated Schema, keyed by
// the fingerprint of the XML it was built from so CacheStore can detect a
// stale cache without re-parsing.
type cacheEnvelope struct {
	SourceFingerprint uint64
	Schema            Schema
}

// CacheStore persists a parsed, validated Schema to disk so repeated
// invocations of the code generator against a large exchange schema skip
// XML parsing and validation. It is pure tooling cache, not message
// persistence (spec.md Non-goals exclude the latter, not this).
type CacheStore struct {
	codec compress.Codec
}

// NewCacheStore creates a CacheStore using the given compression type. The
// zero value, compress.None, stores the blob uncompressed.
func NewCacheStore(typ compress.Type) (*CacheStore, error) {
	codec, err := compress.New(typ)
	if err != nil {
		return nil, err
	}

	return &CacheStore{codec: codec}, nil
}

// Save writes s to path, tagging the envelope with the fingerprint of the
// raw XML bytes it was parsed from.
func (c *CacheStore) Save(path string, xmlSource []byte, s *Schema) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cacheEnvelope{
		SourceFingerprint: xxhashBytes(xmlSource),
		Schema:            *s,
	}); err != nil {
		return fmt.Errorf("schema: cache encode: %w", err)
	}

	compressed, err := c.codec.Compress(buf.Bytes())
	if err != nil {
		return fmt.Errorf("schema: cache compress: %w", err)
	}

	if err := os.WriteFile(path, compressed, 0o644); err != nil {
		return fmt.Errorf("schema: cache write %s: %w", path, err)
	}

	return nil
}

// Load reads a cached Schema from path, returning (nil, false, nil) if the
// cache doesn't exist or its source fingerprint no longer matches
// xmlSource, signaling the caller to reparse.
func (c *CacheStore) Load(path string, xmlSource []byte) (*Schema, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("schema: cache read %s: %w", path, err)
	}

	decompressed, err := c.codec.Decompress(raw)
	if err != nil {
		return nil, false, fmt.Errorf("schema: cache decompress: %w", err)
	}

	var env cacheEnvelope
	if err := gob.NewDecoder(bytes.NewReader(decompressed)).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("schema: cache decode: %w", err)
	}

	if env.SourceFingerprint != xxhashBytes(xmlSource) {
		return nil, false, nil
	}

	return &env.Schema, true, nil
}
