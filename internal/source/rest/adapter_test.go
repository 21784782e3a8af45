package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/suite"

	"persondir/internal/attribute"
	"persondir/internal/source"
	"persondir/pkg/platform/sentinel"
)

type RestAdapterSuite struct {
	suite.Suite
	cfg source.Config
}

func (s *RestAdapterSuite) SetupTest() {
	s.cfg = source.Config{
		Name:              "profile-api",
		UsernameAttribute: "username",
		QueryAttributes:   map[string][]string{"username": {"username"}},
	}
}

func TestRestAdapterSuite(t *testing.T) {
	suite.Run(t, new(RestAdapterSuite))
}

func (s *RestAdapterSuite) TestConstruction() {
	s.Run("missing URL is a configuration error", func() {
		_, err := New(s.cfg, Options{}, nil, nil)
		s.Require().ErrorIs(err, sentinel.ErrConfiguration)
	})

	s.Run("unsupported method is a configuration error", func() {
		_, err := New(s.cfg, Options{URL: "http://example.com", Method: http.MethodDelete}, nil, nil)
		s.Require().ErrorIs(err, sentinel.ErrConfiguration)
	})
}

func (s *RestAdapterSuite) TestPeople() {
	ctx := context.Background()

	s.Run("GET lookup decodes the JSON attribute map", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodGet, r.Method)
			s.Equal("edalquist", r.URL.Query().Get("username"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"displayName": "Eric Dalquist",
				"mail":        []any{"a@x", "b@x"},
			})
		}))
		defer server.Close()

		adapter, err := New(s.cfg, Options{URL: server.URL}, server.Client(), nil)
		s.Require().NoError(err)

		people, err := adapter.People(ctx, attribute.Query{"username": {"edalquist"}})
		s.Require().NoError(err)
		s.Require().Len(people, 1)
		s.Equal("edalquist", people[0].Name)
		s.Equal([]any{"Eric Dalquist"}, people[0].Values("displayName"))
		s.Equal([]any{"a@x", "b@x"}, people[0].Values("mail"))
	})

	s.Run("POST method and basic auth are applied", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Equal(http.MethodPost, r.Method)
			user, pass, ok := r.BasicAuth()
			s.True(ok)
			s.Equal("svc", user)
			s.Equal("secret", pass)
			_ = json.NewEncoder(w).Encode(map[string]any{"mail": "a@x"})
		}))
		defer server.Close()

		adapter, err := New(s.cfg, Options{
			URL:               server.URL,
			Method:            http.MethodPost,
			BasicAuthUsername: "svc",
			BasicAuthPassword: "secret",
		}, server.Client(), nil)
		s.Require().NoError(err)

		people, err := adapter.People(ctx, attribute.Query{"username": {"edalquist"}})
		s.Require().NoError(err)
		s.Len(people, 1)
	})

	s.Run("404 means absent, not an error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		adapter, err := New(s.cfg, Options{URL: server.URL}, server.Client(), nil)
		s.Require().NoError(err)

		people, err := adapter.People(ctx, attribute.Query{"username": {"ghost"}})
		s.Require().NoError(err)
		s.Nil(people)
	})

	s.Run("5xx is a backend error", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		adapter, err := New(s.cfg, Options{URL: server.URL}, server.Client(), nil)
		s.Require().NoError(err)

		_, err = adapter.People(ctx, attribute.Query{"username": {"edalquist"}})
		s.Require().ErrorIs(err, sentinel.ErrBackend)
	})

	s.Run("malformed JSON is a malformed result", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		adapter, err := New(s.cfg, Options{URL: server.URL}, server.Client(), nil)
		s.Require().NoError(err)

		_, err = adapter.People(ctx, attribute.Query{"username": {"edalquist"}})
		s.Require().ErrorIs(err, sentinel.ErrMalformedResult)
	})

	s.Run("query without the username attribute contributes nothing", func() {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		}))
		defer server.Close()

		adapter, err := New(s.cfg, Options{URL: server.URL}, server.Client(), nil)
		s.Require().NoError(err)

		people, err := adapter.People(ctx, attribute.Query{"mail": {"a@x"}})
		s.Require().NoError(err)
		s.Nil(people)
		s.False(called, "the endpoint must not be asked without an identifier")
	})
}
