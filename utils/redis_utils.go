package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
)

type RedisClient struct {
	inner *redis.Client
}

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	REDIS_TRUE = "1"
)

var ctx = context.Background()

// NewRedisClient connects to the given address. Most callers want
// GetRedisClient, which reads the address from the environment.
func NewRedisClient(addr string, password string) *RedisClient {
	return &RedisClient{
		inner: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       0, // use default DB
		})}
}

func GetRedisClient() *RedisClient {
	return NewRedisClient(
		fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		os.Getenv("REDIS_PASSWD"))
}

func ResetMarkerKey(period string) string {
	return fmt.Sprintf("points_reset_%s", period)
}

// ClaimResetPeriod marks the given period as reset and returns true iff this
// call is the one that claimed it. A second trigger within the same period
// sees false and should no-op. The key expires after ttl so a stale marker
// never blocks a future period.
func (r RedisClient) ClaimResetPeriod(period string, ttl time.Duration) (bool, error) {
	return r.inner.SetNX(ctx, ResetMarkerKey(period), REDIS_TRUE, ttl).Result()
}

// ReleaseResetPeriod drops the marker so the period can be claimed again,
// used when the reset run itself failed before processing any user.
func (r RedisClient) ReleaseResetPeriod(period string) error {
	return r.inner.Del(ctx, ResetMarkerKey(period)).Err()
}
