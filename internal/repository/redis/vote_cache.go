package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ScoreTTL       = 24 * time.Hour
	LockTTL        = 300 * time.Millisecond
	ScoreKeyPrefix = "vote:score" // 缓存某个对象的分数
	LockKeyPrefix  = "lock:vote"  // 分布式锁
)

// ScoreCacheRepository 分数缓存：写路径只删不改，读路径加锁回填
type ScoreCacheRepository struct {
	RDB *redis.Client
	TTL time.Duration
}

func NewScoreCacheRepository(rdb *redis.Client) *ScoreCacheRepository {
	return &ScoreCacheRepository{RDB: rdb, TTL: ScoreTTL}
}

func scoreKey(targetType string, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", ScoreKeyPrefix, targetType, id)
}

// GetScore 第二个返回值表示是否命中
func (r *ScoreCacheRepository) GetScore(ctx context.Context, targetType string, id uint64) (int64, bool, error) {
	val, err := r.RDB.Get(ctx, scoreKey(targetType, id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return val, true, nil
}

func (r *ScoreCacheRepository) SetScore(ctx context.Context, targetType string, id uint64, score int64) error {
	return r.RDB.Set(ctx, scoreKey(targetType, id), score, r.TTL).Err()
}

// DeleteScore 立刻删除；delay>0 时在后台再删一次，抵消并发回填窗口
func (r *ScoreCacheRepository) DeleteScore(ctx context.Context, targetType string, id uint64, delay ...time.Duration) error {
	key := scoreKey(targetType, id)
	if err := r.RDB.Del(ctx, key).Err(); err != nil {
		return err
	}
	if len(delay) > 0 && delay[0] > 0 {
		d := delay[0]
		go func() {
			t := time.NewTimer(d)
			defer t.Stop()
			<-t.C
			_ = r.RDB.Del(context.Background(), key).Err()
		}()
	}
	return nil
}

type DistLock struct {
	RDB *redis.Client
}

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

func lockKey(targetType string, id uint64) string {
	return fmt.Sprintf("%s:%s:%d", LockKeyPrefix, targetType, id)
}

// Acquire 请求加分布式锁
func (l *DistLock) Acquire(ctx context.Context, targetType string, id uint64, token string) (bool, error) {
	return l.RDB.SetNX(ctx, lockKey(targetType, id), token, LockTTL).Result()
}

// Release 只释放自己持有的锁
func (l *DistLock) Release(ctx context.Context, targetType string, id uint64, token string) error {
	return releaseScript.Run(ctx, l.RDB, []string{lockKey(targetType, id)}, token).Err()
}
