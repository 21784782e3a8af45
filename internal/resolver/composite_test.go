package resolver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"persondir/internal/attribute"
	"persondir/internal/merge"
	"persondir/internal/source"
)

// fakeSource serves canned people and counts backend calls.
type fakeSource struct {
	name     string
	required bool
	people   []attribute.Person
	err      error
	names    []string
	queryAts []string
	calls    atomic.Int64
}

func (f *fakeSource) Name() string   { return f.name }
func (f *fakeSource) Required() bool { return f.required }

func (f *fakeSource) People(_ context.Context, _ attribute.Query) ([]attribute.Person, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]attribute.Person, len(f.people))
	for i, p := range f.people {
		out[i] = attribute.NewPerson(p.Name, p.Attributes.Clone())
	}
	return out, nil
}

func (f *fakeSource) PossibleUserAttributeNames() []string { return f.names }
func (f *fakeSource) AvailableQueryAttributes() []string   { return f.queryAts }

type CompositeSuite struct {
	suite.Suite
}

func TestCompositeSuite(t *testing.T) {
	suite.Run(t, new(CompositeSuite))
}

func (s *CompositeSuite) TestConstruction() {
	s.Run("at least one source is required", func() {
		_, err := New(Config{})
		s.Require().Error(err)
	})
}

func (s *CompositeSuite) TestPerson() {
	ctx := context.Background()

	s.Run("merges contributions from all sources into one record", func() {
		ldap := &fakeSource{name: "ldap", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"mail": {"a@x"}}),
		}}
		hr := &fakeSource{name: "hr", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"mail": {"b@x"}, "dept": {"engineering"}}),
		}}

		composite, err := New(Config{Sources: []source.Source{ldap, hr}})
		s.Require().NoError(err)

		person, err := composite.Person(ctx, "edalquist")
		s.Require().NoError(err)
		s.Require().NotNil(person)
		s.Equal("edalquist", person.Name)
		s.Equal([]any{"a@x", "b@x"}, person.Values("mail"))
		s.Equal([]any{"engineering"}, person.Values("dept"))
	})

	s.Run("no contribution at all is a confirmed absent, not an error", func() {
		composite, err := New(Config{Sources: []source.Source{&fakeSource{name: "empty"}}})
		s.Require().NoError(err)

		person, err := composite.Person(ctx, "ghost")
		s.Require().NoError(err)
		s.Nil(person)
	})

	s.Run("identifier falls back to the caller-supplied username", func() {
		anon := &fakeSource{name: "anon", people: []attribute.Person{
			attribute.NewPerson("", attribute.Bag{"mail": {"a@x"}}),
		}}
		composite, err := New(Config{Sources: []source.Source{anon}})
		s.Require().NoError(err)

		person, err := composite.Person(ctx, "edalquist")
		s.Require().NoError(err)
		s.Equal("edalquist", person.Name)
	})

	s.Run("optional source failure is omitted, resolution continues", func() {
		broken := &fakeSource{name: "broken", err: errors.New("boom")}
		ok := &fakeSource{name: "ok", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"mail": {"a@x"}}),
		}}
		composite, err := New(Config{Sources: []source.Source{broken, ok}})
		s.Require().NoError(err)

		person, err := composite.Person(ctx, "edalquist")
		s.Require().NoError(err)
		s.Require().NotNil(person)
		s.Equal([]any{"a@x"}, person.Values("mail"))
	})

	s.Run("required source failure is fatal", func() {
		broken := &fakeSource{name: "broken", required: true, err: errors.New("boom")}
		composite, err := New(Config{Sources: []source.Source{broken}})
		s.Require().NoError(err)

		_, err = composite.Person(ctx, "edalquist")
		s.Require().Error(err)
		s.Contains(err.Error(), "broken")
	})
}

func (s *CompositeSuite) TestPeople() {
	ctx := context.Background()

	s.Run("unions identities and merges recurring ones", func() {
		ldap := &fakeSource{name: "ldap", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"mail": {"a@x"}}),
			attribute.NewPerson("jstudent", attribute.Bag{"mail": {"j@x"}}),
		}}
		hr := &fakeSource{name: "hr", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"dept": {"engineering"}}),
		}}
		composite, err := New(Config{Sources: []source.Source{ldap, hr}})
		s.Require().NoError(err)

		people, err := composite.People(ctx, attribute.Query{"mail": {"*@x"}})
		s.Require().NoError(err)

		s.Require().Len(people, 2)
		s.Equal("edalquist", people[0].Name, "first-seen order is preserved")
		s.Equal([]any{"a@x"}, people[0].Values("mail"))
		s.Equal([]any{"engineering"}, people[0].Values("dept"))
		s.Equal("jstudent", people[1].Name)
	})

	s.Run("empty result is an empty set, not an error", func() {
		composite, err := New(Config{Sources: []source.Source{&fakeSource{name: "empty"}}})
		s.Require().NoError(err)

		people, err := composite.People(ctx, attribute.Query{"mail": {"none"}})
		s.Require().NoError(err)
		s.Empty(people)
	})

	s.Run("parallel collection still folds in configured order", func() {
		first := &fakeSource{name: "first", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"title": {"senior"}}),
		}}
		second := &fakeSource{name: "second", people: []attribute.Person{
			attribute.NewPerson("edalquist", attribute.Bag{"title": {"junior"}}),
		}}
		composite, err := New(Config{
			Sources:  []source.Source{first, second},
			Strategy: merge.NoncollidingAdditive{},
			Parallel: true,
		})
		s.Require().NoError(err)

		for range 20 {
			person, err := composite.Person(ctx, "edalquist")
			s.Require().NoError(err)
			s.Equal([]any{"senior"}, person.Values("title"), "configured order wins regardless of completion order")
		}
	})
}

func (s *CompositeSuite) TestDiscovery() {
	ctx := context.Background()

	ldap := &fakeSource{name: "ldap", names: []string{"mail", "displayName"}, queryAts: []string{"username", "email"}}
	hr := &fakeSource{name: "hr", names: []string{"dept", "mail"}, queryAts: []string{"username"}}
	composite, err := New(Config{Sources: []source.Source{ldap, hr}})
	s.Require().NoError(err)

	s.Run("possible user attribute names union and dedupe", func() {
		names, err := composite.PossibleUserAttributeNames(ctx)
		s.Require().NoError(err)
		s.Equal([]string{"dept", "displayName", "mail"}, names)
	})

	s.Run("available query attributes union and dedupe", func() {
		attrs, err := composite.AvailableQueryAttributes(ctx)
		s.Require().NoError(err)
		s.Equal([]string{"email", "username"}, attrs)
	})

	s.Run("discovery never touches the backends", func() {
		probe := &fakeSource{name: "probe", names: []string{"mail"}}
		c, err := New(Config{Sources: []source.Source{probe}})
		s.Require().NoError(err)

		_, err = c.PossibleUserAttributeNames(ctx)
		s.Require().NoError(err)
		_, err = c.AvailableQueryAttributes(ctx)
		s.Require().NoError(err)
		s.EqualValues(0, probe.calls.Load())
	})
}
