package schema

import (
	"fmt"

	"github.com/quantforge/sbe/errs"
)

// validate checks the invariants spec.md §3/§4.1 name explicitly beyond
// what the resolver already enforces while building the model (enum value
// and set bit-position uniqueness, declared-vs-computed offset agreement).
func validate(s *Schema) error {
	for _, m := range s.Messages {
		if err := validateBlock(m.Name, m.Fields, m.BlockLength); err != nil {
			return err
		}

		if err := validateGroups(m.Name, m.Groups); err != nil {
			return err
		}
	}

	return nil
}

func validateGroups(messageName string, groups []Group) error {
	for _, g := range groups {
		if err := validateBlock(messageName+"."+g.Name, g.Fields, g.BlockLength); err != nil {
			return err
		}

		if err := validateGroups(messageName+"."+g.Name, g.Groups); err != nil {
			return err
		}
	}

	return nil
}

// validateBlock checks that field offsets are strictly monotonic and that
// blockLength is at least the sum of field sizes (spec.md §3: "blockLength
// >= sum of root field sizes").
func validateBlock(context string, fields []Field, blockLength int) error {
	lastEnd := -1

	for _, f := range fields {
		if f.Offset < lastEnd && lastEnd != -1 {
			return fmt.Errorf("%w: %s field %q offset %d is not strictly after preceding field (ends at %d)",
				errs.ErrOffsetMismatch, context, f.Name, f.Offset, lastEnd)
		}

		lastEnd = f.Offset + f.Type.Size()
	}

	if lastEnd > blockLength {
		return fmt.Errorf("%w: %s blockLength %d is smaller than field span %d",
			errs.ErrOffsetMismatch, context, blockLength, lastEnd)
	}

	return nil
}
