//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"persondir/pkg/testutil/containers"
)

type RedisStoreIntegrationSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *RedisStore
}

func TestRedisStoreIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreIntegrationSuite))
}

func (s *RedisStoreIntegrationSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *RedisStoreIntegrationSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.store = NewRedisStore(s.redis.Client, time.Minute)
}

func (s *RedisStoreIntegrationSuite) TestRoundTrip() {
	ctx := context.Background()

	_, ok, err := s.store.Get(ctx, "missing")
	s.Require().NoError(err)
	s.False(ok)

	created, err := s.store.Put(ctx, "k", []byte(`{"absent":true}`))
	s.Require().NoError(err)
	s.True(created)

	created, err = s.store.Put(ctx, "k", []byte(`{"absent":false}`))
	s.Require().NoError(err)
	s.False(created, "overwriting an existing key is not a create")

	value, ok, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.True(ok)
	s.JSONEq(`{"absent":false}`, string(value))

	size, err := s.store.Size(ctx)
	s.Require().NoError(err)
	s.EqualValues(1, size)
}

func (s *RedisStoreIntegrationSuite) TestRemoveAndFlush() {
	ctx := context.Background()

	_, err := s.store.Put(ctx, "a", []byte(`{}`))
	s.Require().NoError(err)
	_, err = s.store.Put(ctx, "b", []byte(`{}`))
	s.Require().NoError(err)

	removed, err := s.store.Remove(ctx, "a")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.store.Remove(ctx, "a")
	s.Require().NoError(err)
	s.False(removed)

	s.Require().NoError(s.store.Flush(ctx))

	size, err := s.store.Size(ctx)
	s.Require().NoError(err)
	s.EqualValues(0, size)
}

func (s *RedisStoreIntegrationSuite) TestPrefixIsolation() {
	ctx := context.Background()

	other := NewRedisStore(s.redis.Client, time.Minute, WithKeyPrefix("other:"))
	_, err := other.Put(ctx, "k", []byte(`{}`))
	s.Require().NoError(err)

	_, ok, err := s.store.Get(ctx, "k")
	s.Require().NoError(err)
	s.False(ok, "namespaces do not leak across prefixes")

	s.Require().NoError(s.store.Flush(ctx))
	size, err := other.Size(ctx)
	s.Require().NoError(err)
	s.EqualValues(1, size, "flush only clears its own namespace")
}
