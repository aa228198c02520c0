package warncount

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemStoreBasics(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemStore(100, time.Hour)

	c, err := s.Get(ctx, "user_warnings_1")
	assert.NoError(err)
	assert.Equal(0, c)

	c, err = s.Increment(ctx, "user_warnings_1")
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = s.Increment(ctx, "user_warnings_1")
	assert.NoError(err)
	assert.Equal(2, c)

	c, err = s.Get(ctx, "user_warnings_1")
	assert.NoError(err)
	assert.Equal(2, c)

	// other keys are independent
	c, err = s.Get(ctx, "user_warnings_2")
	assert.NoError(err)
	assert.Equal(0, c)

	assert.NoError(s.Reset(ctx, "user_warnings_1"))
	c, err = s.Get(ctx, "user_warnings_1")
	assert.NoError(err)
	assert.Equal(0, c)

	// resetting an absent key is fine
	assert.NoError(s.Reset(ctx, "user_warnings_3"))
}

func TestMemStoreExpiry(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemStore(100, 50*time.Millisecond)

	c, err := s.Increment(ctx, "k")
	assert.NoError(err)
	assert.Equal(1, c)

	time.Sleep(120 * time.Millisecond)

	c, err = s.Get(ctx, "k")
	assert.NoError(err)
	assert.Equal(0, c)

	// counting restarts after expiry
	c, err = s.Increment(ctx, "k")
	assert.NoError(err)
	assert.Equal(1, c)
}

func TestMemStoreConcurrent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	s := NewMemStore(100, time.Hour)

	var wg sync.WaitGroup
	fnInc := func(key string, times int) {
		for i := 0; i < times; i++ {
			_, err := s.Increment(ctx, key)
			assert.NoError(err)
			time.Sleep(time.Nanosecond)
		}
		wg.Done()
	}
	wg.Add(4)
	go fnInc("a", 10)
	go fnInc("a", 10)
	go fnInc("b", 6)
	go fnInc("b", 6)
	wg.Wait()

	c, err := s.Get(ctx, "a")
	assert.NoError(err)
	assert.Equal(20, c)
	c, err = s.Get(ctx, "b")
	assert.NoError(err)
	assert.Equal(12, c)
}

func TestRedisStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")
	assert := assert.New(t)
	ctx := context.Background()

	s, err := NewRedisStore("redis://localhost:6379/0", time.Minute)
	if err != nil {
		t.Fail()
	}

	key := UserKey(424242)
	assert.NoError(s.Reset(ctx, key))

	c, err := s.Increment(ctx, key)
	assert.NoError(err)
	assert.Equal(1, c)
	c, err = s.Increment(ctx, key)
	assert.NoError(err)
	assert.Equal(2, c)

	c, err = s.Get(ctx, key)
	assert.NoError(err)
	assert.Equal(2, c)

	ttl, err := s.Client.TTL(ctx, redisCountPrefix+key).Result()
	assert.NoError(err)
	assert.True(ttl > 0)

	assert.NoError(s.Reset(ctx, key))
	c, err = s.Get(ctx, key)
	assert.NoError(err)
	assert.Equal(0, c)
}

func TestUserKey(t *testing.T) {
	assert.Equal(t, "user_warnings_17", UserKey(17))
}
