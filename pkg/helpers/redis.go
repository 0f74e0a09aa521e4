package helpers

import (
	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client; an empty addr means redis is disabled.
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
