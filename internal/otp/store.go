package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix     = "otp:"
	cooldownKeyPrefix = "otp:resend:"
)

var errRedisUnavailable = errors.New("otp store unavailable")

// Store keeps short-lived verification codes and resend-cooldown markers
// in redis. At most one live code exists per email: saving a new code
// overwrites the previous one.
type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

func codeKey(email string) string {
	return codeKeyPrefix + email
}

func cooldownKey(email string) string {
	return cooldownKeyPrefix + email
}

// GenerateCode returns a 6-digit numeric code, uniformly random over
// [0, 1000000) and left-padded with zeros.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Store) SaveCode(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, codeKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

// GetCode returns the live code for email, or "" when none is stored.
func (s *Store) GetCode(ctx context.Context, email string) (string, error) {
	code, err := s.redis.Get(ctx, codeKey(email)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return code, nil
}

func (s *Store) DeleteCode(ctx context.Context, email string) error {
	if err := s.redis.Del(ctx, codeKey(email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

func (s *Store) SetCooldown(ctx context.Context, email string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, cooldownKey(email), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return nil
}

// InCooldown reports whether a resend-cooldown marker is live for email.
// Two concurrent resends may both observe false before either marker is
// set; the cooldown is a spam deterrent, not a security boundary.
func (s *Store) InCooldown(ctx context.Context, email string) (bool, error) {
	_, err := s.redis.Get(ctx, cooldownKey(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: %v", errRedisUnavailable, err)
	}
	return true, nil
}
