// Package attribute holds the canonical in-memory representation of person
// records: multi-valued attribute bags, identified persons, and the
// multi-valued query form that sources are searched with.
package attribute

// Bag maps an attribute name to its ordered value sequence. Every value is
// stored as a sequence even when the backend produced a single scalar; an
// empty sequence is a real entry and is distinguishable from an absent key.
type Bag map[string][]any

// Ensure returns the value sequence for name, inserting an empty sequence
// first when the key is absent.
func (b Bag) Ensure(name string) []any {
	if values, ok := b[name]; ok {
		return values
	}
	b[name] = []any{}
	return b[name]
}

// Append adds values to the sequence stored under name, creating the entry
// when absent.
func (b Bag) Append(name string, values ...any) {
	b[name] = append(b[name], values...)
}

// Clone returns a deep-enough copy: a new map with freshly allocated value
// slices. The values themselves are shared; they are treated as opaque and
// never mutated by this package.
func (b Bag) Clone() Bag {
	if b == nil {
		return nil
	}
	out := make(Bag, len(b))
	for name, values := range b {
		copied := make([]any, len(values))
		copy(copied, values)
		out[name] = copied
	}
	return out
}

// BagFromScalars lifts a flat name→scalar map into the canonical multi-valued
// form. Values that are already []any are kept as-is, nil values become a
// single-element sequence holding nil.
func BagFromScalars(flat map[string]any) Bag {
	bag := make(Bag, len(flat))
	for name, value := range flat {
		if seq, ok := value.([]any); ok {
			bag[name] = seq
			continue
		}
		bag[name] = []any{value}
	}
	return bag
}
