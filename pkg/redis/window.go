package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindow increments a counter and starts its TTL on first use.
// Returns {count, ttl_seconds}.
var fixedWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('EXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('TTL', KEYS[1])
return {count, ttl}
`)

// IncrWindow counts one hit against key in a fixed window and reports the
// running count and when the window resets.
func IncrWindow(ctx context.Context, c redis.Scripter, key string, window time.Duration) (int, time.Time, error) {
	seconds := int(window.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	result, err := fixedWindow.Run(ctx, c, []string{key}, seconds).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: window increment failed: %w", err)
	}

	arr, ok := result.([]interface{})
	if !ok || len(arr) < 2 {
		return 0, time.Time{}, fmt.Errorf("redis: unexpected window result %T", result)
	}
	count, _ := arr[0].(int64)
	ttl, _ := arr[1].(int64)
	if ttl < 0 {
		ttl = int64(seconds)
	}
	return int(count), time.Now().Add(time.Duration(ttl) * time.Second), nil
}
