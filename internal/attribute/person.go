package attribute

import "strings"

// Person is one identified attribute bag: the resolved identifier plus every
// attribute the sources contributed for it.
type Person struct {
	Name       string `json:"name"`
	Attributes Bag    `json:"attributes"`
}

// NewPerson builds a Person, guaranteeing a non-nil bag.
func NewPerson(name string, attributes Bag) Person {
	if attributes == nil {
		attributes = Bag{}
	}
	return Person{Name: name, Attributes: attributes}
}

// Value returns the first value stored under name, or nil when the attribute
// is absent or empty.
func (p Person) Value(name string) any {
	values := p.Attributes[name]
	if len(values) == 0 {
		return nil
	}
	return values[0]
}

// Values returns the full value sequence stored under name.
func (p Person) Values(name string) []any {
	return p.Attributes[name]
}

// ValuesFold returns the value sequence for name using a case-insensitive
// match on the attribute name. The first matching key in undefined map order
// wins; callers that need determinism should keep attribute names
// case-consistent across sources.
func (p Person) ValuesFold(name string) []any {
	if values, ok := p.Attributes[name]; ok {
		return values
	}
	for key, values := range p.Attributes {
		if strings.EqualFold(key, name) {
			return values
		}
	}
	return nil
}
