package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"p2p-lending/internal/domain/apperr"
)

const redisLockPrefix = "lock:p2p:"

// Compare-and-delete so a holder whose TTL lapsed cannot free a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Redis is a Locker shared by every API instance. Each key is a SET NX PX
// entry holding a random token; ttl bounds how long a crashed holder blocks others.
type Redis struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
	poll time.Duration
}

func NewRedis(rdb *redis.Client, ttl, wait time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, wait: wait, poll: 10 * time.Millisecond}
}

type heldKey struct{ key, token string }

func (r *Redis) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = ordered(keys)
	deadline := time.Now().Add(r.wait)

	held := make([]heldKey, 0, len(keys))
	unlock := func() {
		// release with a fresh context: the caller's may already be done
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = releaseScript.Run(rctx, r.rdb, []string{held[i].key}, held[i].token).Err()
		}
	}

	for _, k := range keys {
		rk := redisLockPrefix + k
		token := uuid.NewString()
		for {
			ok, err := r.rdb.SetNX(ctx, rk, token, r.ttl).Result()
			if err != nil {
				unlock()
				return nil, fmt.Errorf("%w: lock %s: %v", apperr.ErrStorageFailure, k, err)
			}
			if ok {
				held = append(held, heldKey{key: rk, token: token})
				break
			}
			if time.Now().After(deadline) {
				unlock()
				return nil, fmt.Errorf("%w: waiting for %s", apperr.ErrOperationTimeout, k)
			}
			select {
			case <-ctx.Done():
				unlock()
				return nil, fmt.Errorf("%w: waiting for %s", apperr.ErrOperationTimeout, k)
			case <-time.After(r.poll):
			}
		}
	}

	var once sync.Once
	return func() { once.Do(unlock) }, nil
}
