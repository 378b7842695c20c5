package redis

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Redis guards the per-auction sequence window (max read followed by
// writes) with a SetNX + TTL lock. The lock narrows the race between
// concurrent reorders/imports; it is best-effort, not a correctness
// guarantee.
type Redis struct {
	Client *redis.Client
	Logger *log.Logger
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		Client: client,
		Logger: log.Default(),
	}
}

// getSequenceLockTTL returns the lock TTL, from SEQUENCE_LOCK_TTL_SECONDS or
// a 15 second default.
func (r *Redis) getSequenceLockTTL() time.Duration {
	defaultTTL := 15 * time.Second

	ttlStr := os.Getenv("SEQUENCE_LOCK_TTL_SECONDS")
	if ttlStr == "" {
		return defaultTTL
	}
	ttlSec, err := strconv.Atoi(ttlStr)
	if err != nil || ttlSec <= 0 {
		r.Logger.Println("REDIS: Invalid SEQUENCE_LOCK_TTL_SECONDS value '" + ttlStr + "', using default 15 seconds")
		return defaultTTL
	}
	return time.Duration(ttlSec) * time.Second
}

// Acquire takes the sequence lock for one auction, retrying briefly if
// another caller holds it. The returned release function is owner-checked:
// it only deletes the key if this caller still holds it.
func (r *Redis) Acquire(auctionID string) (func(), error) {
	ctx := context.Background()
	key := "sequence_lock:" + auctionID
	token := uuid.New().String()
	ttl := r.getSequenceLockTTL()

	deadline := time.Now().Add(2 * time.Second)
	for {
		ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("sequence lock for auction %s is held by another caller", auctionID)
		}
		time.Sleep(50 * time.Millisecond)
	}

	release := func() {
		val, err := r.Client.Get(ctx, key).Result()
		if err == redis.Nil {
			return // expired, nothing to release
		}
		if err != nil {
			r.Logger.Printf("REDIS: failed to read sequence lock %s: %v", key, err)
			return
		}
		if val == token {
			if _, err := r.Client.Del(ctx, key).Result(); err != nil {
				r.Logger.Printf("REDIS: failed to release sequence lock %s: %v", key, err)
			}
		}
	}
	return release, nil
}
