// Package kyc reads verification status published by the KYC subsystem.
package kyc

import (
	"context"
	"errors"
	"fmt"

	"p2p-lending/internal/domain/apperr"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "kyc:verified:"

// RedisVerifier treats a user as verified when kyc:verified:<user> holds "1"
// or "true".
type RedisVerifier struct {
	rdb *redis.Client
}

func NewRedisVerifier(rdb *redis.Client) *RedisVerifier { return &RedisVerifier{rdb: rdb} }

func (v *RedisVerifier) IsVerified(ctx context.Context, userID string) (bool, error) {
	val, err := v.rdb.Get(ctx, keyPrefix+userID).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("%w: kyc lookup: %v", apperr.ErrStorageFailure, err)
	}
	return val == "1" || val == "true", nil
}

// MarkVerified is used by seeding tools and tests.
func (v *RedisVerifier) MarkVerified(ctx context.Context, userID string) error {
	return v.rdb.Set(ctx, keyPrefix+userID, "1", 0).Err()
}
