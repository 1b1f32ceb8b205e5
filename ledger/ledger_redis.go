package ledger

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisViolationPrefix string = "violations/"

// RedisLedger stores each series as a sorted set scored by event timestamp
// (unix nanoseconds). Deployments sharing a redis instance across several
// engine processes get a shared ledger; retention is enforced both by
// trimming on insert and by key TTLs.
type RedisLedger struct {
	Client *redis.Client

	// Now is the clock used for timestamps and cutoffs. Override in tests.
	Now func() time.Time
}

var _ Ledger = (*RedisLedger)(nil)

func NewRedisLedger(redisURL string) (*RedisLedger, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisLedger{
		Client: rdb,
		Now:    time.Now,
	}, nil
}

func (l *RedisLedger) Record(ctx context.Context, groupID, userID, kind string) error {
	now := l.Now()
	horizon := now.Add(-RetentionPeriod)
	member := fmt.Sprintf("%d:%s", now.UnixNano(), kind)

	// append to both series, trim expired events, and refresh TTLs in a
	// single round-trip
	multi := l.Client.Pipeline()
	for _, key := range []string{
		redisViolationPrefix + userKey(groupID, userID),
		redisViolationPrefix + groupKey(groupID),
	} {
		multi.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
		multi.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(horizon.UnixNano(), 10))
		multi.Expire(ctx, key, RetentionPeriod)
	}
	_, err := multi.Exec(ctx)
	return err
}

func (l *RedisLedger) CountUser(ctx context.Context, groupID, userID string, window time.Duration) (int, error) {
	return l.countSince(ctx, redisViolationPrefix+userKey(groupID, userID), clampCutoff(l.Now(), window))
}

func (l *RedisLedger) CountGroup(ctx context.Context, groupID string, window time.Duration) (int, error) {
	return l.countSince(ctx, redisViolationPrefix+groupKey(groupID), clampCutoff(l.Now(), window))
}

func (l *RedisLedger) countSince(ctx context.Context, key string, cutoff time.Time) (int, error) {
	// exclusive lower bound: count events strictly after the cutoff
	min := "(" + strconv.FormatInt(cutoff.UnixNano(), 10)
	c, err := l.Client.ZCount(ctx, key, min, "+inf").Result()
	if err == redis.Nil {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return int(c), nil
}
