// Package merge implements the policies for combining two attribute bags that
// describe (possibly) the same identity.
package merge

import "persondir/internal/attribute"

// Strategy combines an accumulator bag with a new contribution. Merge must not
// mutate toConsider and must return a bag containing the union of keys from
// both inputs. The returned bag may be toModify itself, mutated in place.
type Strategy interface {
	Merge(toModify, toConsider attribute.Bag) attribute.Bag
}

// Replacing overwrites every key present in toConsider wholesale.
type Replacing struct{}

func (Replacing) Merge(toModify, toConsider attribute.Bag) attribute.Bag {
	if toModify == nil {
		toModify = attribute.Bag{}
	}
	for name, values := range toConsider {
		toModify[name] = copyValues(values)
	}
	return toModify
}

// NoncollidingAdditive copies only the keys toModify does not already have.
// First writer wins; existing entries are left untouched.
type NoncollidingAdditive struct{}

func (NoncollidingAdditive) Merge(toModify, toConsider attribute.Bag) attribute.Bag {
	if toModify == nil {
		toModify = attribute.Bag{}
	}
	for name, values := range toConsider {
		if _, ok := toModify[name]; ok {
			continue
		}
		toModify[name] = copyValues(values)
	}
	return toModify
}

// MultivaluedAdditive concatenates value sequences for keys present in both
// bags, in encounter order. With DistinctValues set, the concatenated sequence
// is deduplicated preserving first-occurrence order.
type MultivaluedAdditive struct {
	DistinctValues bool
}

func (m MultivaluedAdditive) Merge(toModify, toConsider attribute.Bag) attribute.Bag {
	if toModify == nil {
		toModify = attribute.Bag{}
	}
	for name, incoming := range toConsider {
		combined := append(toModify.Ensure(name), incoming...)
		if m.DistinctValues {
			combined = distinct(combined)
		}
		toModify[name] = combined
	}
	return toModify
}

func copyValues(values []any) []any {
	out := make([]any, len(values))
	copy(out, values)
	return out
}

// distinct removes duplicates preserving first-occurrence order. Values are
// compared by interface equality; uncomparable values (slices, maps) are kept
// as-is rather than panicking.
func distinct(values []any) []any {
	seen := make(map[any]struct{}, len(values))
	out := make([]any, 0, len(values))
	for _, v := range values {
		if !hashable(v) {
			out = append(out, v)
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func hashable(v any) bool {
	switch v.(type) {
	case []any, map[string]any, attribute.Bag:
		return false
	}
	return true
}
