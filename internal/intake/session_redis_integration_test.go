//go:build integration

package intake_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"aircrew/internal/intake"
	"aircrew/pkg/testutil/containers"
)

type RedisSessionsSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *intake.RedisSessions
	ctx   context.Context
}

func TestRedisSessionsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisSessionsSuite))
}

func (s *RedisSessionsSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = intake.NewRedisSessions(s.redis.Client)
}

func (s *RedisSessionsSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisSessionsSuite) TestRoundTrip() {
	session := &intake.Session{
		ChatID:   42,
		State:    intake.StateAwaitingDate,
		DateKind: intake.DateUMO,
		VLKDate:  "2025-01-10",
	}
	s.Require().NoError(s.store.Put(s.ctx, session))

	got, err := s.store.Get(s.ctx, 42)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(intake.StateAwaitingDate, got.State)
	s.Equal(intake.DateUMO, got.DateKind)
	s.Equal("2025-01-10", got.VLKDate)
}

func (s *RedisSessionsSuite) TestAbsentSessionIsNil() {
	got, err := s.store.Get(s.ctx, 999)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *RedisSessionsSuite) TestDelete() {
	session := &intake.Session{ChatID: 42, State: intake.StateAwaitingSurname}
	s.Require().NoError(s.store.Put(s.ctx, session))
	s.Require().NoError(s.store.Delete(s.ctx, 42))

	got, err := s.store.Get(s.ctx, 42)
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *RedisSessionsSuite) TestPutOverwrites() {
	s.Require().NoError(s.store.Put(s.ctx, &intake.Session{
		ChatID: 42, State: intake.StateAwaitingSurname,
	}))
	s.Require().NoError(s.store.Put(s.ctx, &intake.Session{
		ChatID: 42, State: intake.StateAwaitingRank, Surname: "Ivanov",
	}))

	got, err := s.store.Get(s.ctx, 42)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(intake.StateAwaitingRank, got.State)
	s.Equal("Ivanov", got.Surname)
}
