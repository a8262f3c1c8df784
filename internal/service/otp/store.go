package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoCode = errors.New("no active code")

// Store keeps hashed codes and counters with expiry.
type Store interface {
	// IncrSends counts a send in the rolling window and returns the count so far.
	IncrSends(ctx context.Context, email string, window time.Duration) (int64, error)
	Save(ctx context.Context, email, hash string, ttl time.Duration) error
	Load(ctx context.Context, email string) (string, error)
	IncrAttempts(ctx context.Context, email string) (int64, error)
	Delete(ctx context.Context, email string) error
}

type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func codeKey(email string) string     { return "otp:code:" + email }
func attemptsKey(email string) string { return "otp:attempts:" + email }
func sendsKey(email string) string    { return "otp:sends:" + email }

func (s *redisStore) IncrSends(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := sendsKey(email)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count otp sends: %w", err)
	}
	if n == 1 {
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to expire otp send counter: %w", err)
		}
	}
	return n, nil
}

func (s *redisStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, codeKey(email), hash, ttl)
		pipe.Del(ctx, attemptsKey(email))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

func (s *redisStore) Load(ctx context.Context, email string) (string, error) {
	hash, err := s.client.Get(ctx, codeKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoCode
	}
	if err != nil {
		return "", fmt.Errorf("failed to load otp: %w", err)
	}
	return hash, nil
}

func (s *redisStore) IncrAttempts(ctx context.Context, email string) (int64, error) {
	key := attemptsKey(email)
	n, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count otp attempts: %w", err)
	}
	if ttl, err := s.client.TTL(ctx, codeKey(email)).Result(); err == nil && ttl > 0 {
		s.client.Expire(ctx, key, ttl)
	}
	return n, nil
}

func (s *redisStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, codeKey(email), attemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
