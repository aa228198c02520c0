package warncount

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisCountPrefix string = "warncount/"

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStore{
		Client: rdb,
		TTL:    ttl,
	}, nil
}

func (s *RedisStore) Increment(ctx context.Context, key string) (int, error) {
	key = redisCountPrefix + key

	// increment and refresh expiry in a single MULTI/EXEC round-trip
	var incr *redis.IntCmd
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.TTL)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (int, error) {
	c, err := s.Client.Get(ctx, redisCountPrefix+key).Int()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return c, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.Client.Del(ctx, redisCountPrefix+key).Err()
}
