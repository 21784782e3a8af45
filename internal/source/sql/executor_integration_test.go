//go:build integration

package sql_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"persondir/internal/attribute"
	"persondir/internal/rowset"
	"persondir/internal/source"
	sqlsource "persondir/internal/source/sql"
	"persondir/pkg/testutil/containers"
)

type ExecutorSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
}

func TestExecutorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ExecutorSuite))
}

func (s *ExecutorSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	ctx := context.Background()
	_, err := s.postgres.DB.ExecContext(ctx, `
		CREATE TABLE app_users (
			uid          TEXT PRIMARY KEY,
			mail         TEXT,
			display_name TEXT
		);
		CREATE TABLE user_attributes (
			user_nm TEXT NOT NULL,
			attr_nm TEXT NOT NULL,
			attr_vl TEXT
		);
	`)
	s.Require().NoError(err)
}

func (s *ExecutorSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "app_users", "user_attributes"))
}

func (s *ExecutorSuite) TestSingleRowAdapter() {
	ctx := context.Background()
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO app_users (uid, mail, display_name) VALUES
			('edalquist', 'edalquist@example.com', 'Eric Dalquist'),
			('jstudent', 'jstudent@example.com', NULL);
	`)
	s.Require().NoError(err)

	adapter, err := sqlsource.New(
		source.Config{
			Name:              "hr-db",
			UsernameAttribute: "username",
			QueryAttributes:   map[string][]string{"username": {"uid"}, "email": {"mail"}},
			ResultAttributes: map[string][]string{
				"uid":          {"username"},
				"mail":         {"email"},
				"display_name": {"displayName"},
			},
		},
		source.JoinAnd,
		"SELECT uid, mail, display_name FROM app_users",
		sqlsource.NewDBExecutor(s.postgres.DB),
		nil,
	)
	s.Require().NoError(err)

	s.Run("equality lookup", func() {
		people, err := adapter.People(ctx, attribute.Query{"username": {"edalquist"}})
		s.Require().NoError(err)
		s.Require().Len(people, 1)
		s.Equal("edalquist", people[0].Name)
		s.Equal([]any{"Eric Dalquist"}, people[0].Values("displayName"))
	})

	s.Run("wildcard lookup", func() {
		people, err := adapter.People(ctx, attribute.Query{"email": {"*@example.com"}})
		s.Require().NoError(err)
		s.Len(people, 2)
	})

	s.Run("null column survives as a nil value", func() {
		people, err := adapter.People(ctx, attribute.Query{"username": {"jstudent"}})
		s.Require().NoError(err)
		s.Require().Len(people, 1)
		s.Equal([]any{nil}, people[0].Values("displayName"))
	})
}

func (s *ExecutorSuite) TestMultiRowAdapter() {
	ctx := context.Background()
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO user_attributes (user_nm, attr_nm, attr_vl) VALUES
			('jstudent', 'name.given', 'joe'),
			('jstudent', 'name.family', 'student'),
			('badvisor', 'name.given', 'bob'),
			('badvisor', 'name.family', 'advisor');
	`)
	s.Require().NoError(err)

	adapter, err := sqlsource.NewMultiRow(
		source.Config{
			Name:              "attr-table",
			UsernameAttribute: "username",
			QueryAttributes:   map[string][]string{"username": {"user_nm"}},
		},
		source.JoinOr,
		"SELECT user_nm, attr_nm, attr_vl FROM user_attributes",
		rowset.Grouper{
			UsernameColumn:   "user_nm",
			NameValueColumns: map[string][]string{"attr_nm": {"attr_vl"}},
		},
		sqlsource.NewDBExecutor(s.postgres.DB),
		nil,
	)
	s.Require().NoError(err)

	people, err := adapter.People(ctx, attribute.Query{"username": {"jstudent", "badvisor"}})
	s.Require().NoError(err)
	s.Require().Len(people, 2)

	byName := map[string]attribute.Person{}
	for _, p := range people {
		byName[p.Name] = p
	}
	s.Equal([]any{"joe"}, byName["jstudent"].Values("name.given"))
	s.Equal([]any{"student"}, byName["jstudent"].Values("name.family"))
	s.Equal([]any{"advisor"}, byName["badvisor"].Values("name.family"))
}
