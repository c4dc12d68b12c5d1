package kv

import (
	"fmt"

	"github.com/go-redis/redis"
)

// Redis keeps the persistent area in a shared Redis instance so several
// processes on one host see the same reminders. Last writer wins.
type Redis struct {
	client *redis.Client
	prefix string
}

func NewRedis(addr, prefix string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})

	if _, err := client.Ping().Result(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %v", err)
	}

	return &Redis{client: client, prefix: prefix}, nil
}

func (r *Redis) Get(key string) ([]byte, error) {
	b, err := r.client.Get(r.prefix + key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	return b, err
}

func (r *Redis) Put(key string, value []byte) error {
	return r.client.Set(r.prefix+key, value, 0).Err()
}

func (r *Redis) Delete(key string) error {
	return r.client.Del(r.prefix + key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
