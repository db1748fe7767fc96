package persistence

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/petrijr/stepform/internal/testutil"
	"github.com/petrijr/stepform/pkg/api"
)

const redisTestPrefix = "stepform:test:"

type RedisStoreTestSuite struct {
	suite.Suite
	client *redis.Client
}

func TestRedisStoreTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ts := new(RedisStoreTestSuite)
	ts.client = redis.NewClient(&redis.Options{Addr: testutil.GetRedisAddress(t)})
	t.Cleanup(func() {
		_ = ts.client.Close()
	})
	if err := ts.client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping failed: %v", err)
	}
	suite.Run(t, ts)
}

func (r *RedisStoreTestSuite) flush() {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, redisTestPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		r.Require().NoError(r.client.Del(ctx, iter.Val()).Err())
	}
	r.Require().NoError(iter.Err())
}

func (r *RedisStoreTestSuite) TestContract() {
	runStoreContract(r.T(), func(t *testing.T) Store {
		r.flush()
		return NewRedisStore(r.client, redisTestPrefix)
	})
}

func (r *RedisStoreTestSuite) TestStaleIndexEntryIsSkipped() {
	r.flush()
	ctx := context.Background()
	s := NewRedisStore(r.client, redisTestPrefix)

	r.Require().NoError(s.CreateSubmission(ctx, newTestSubmission("kept")))
	r.Require().NoError(r.client.SAdd(ctx, s.keyAll(), "ghost").Err())

	subs, err := s.ListSubmissions(ctx, api.SubmissionListOptions{})
	r.Require().NoError(err)
	r.Require().Len(subs, 1)
	r.Require().Equal("kept", subs[0].ID)
}
