package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	UserTokenPrefix   = "login:user:token"
	UserTokenExpire   = 30 * time.Minute
	UserRefreshPrefix = "login:user:refresh"
)

// SessionRepository 每个用户只保留一个有效 access token，后登录的会顶掉先登录的
type SessionRepository struct {
	RDB *redis.Client
}

func (r *SessionRepository) key(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func (r *SessionRepository) SaveToken(ctx context.Context, userID uint64, token string) error {
	if err := r.RDB.Set(ctx, r.key(userID), token, UserTokenExpire).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *SessionRepository) GetToken(ctx context.Context, userID uint64) (string, error) {
	token, err := r.RDB.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return token, nil
}

// ExtendToken 滑动续期
func (r *SessionRepository) ExtendToken(ctx context.Context, userID uint64) error {
	return r.RDB.Expire(ctx, r.key(userID), UserTokenExpire).Err()
}

// SaveRefresh 登记当前有效的 refresh jti，旧的随之作废
func (r *SessionRepository) SaveRefresh(ctx context.Context, userID uint64, jti string, ttl time.Duration) error {
	if err := r.RDB.Set(ctx, r.refreshKey(userID), jti, ttl).Err(); err != nil {
		return ErrRedisUnavailable
	}
	return nil
}

func (r *SessionRepository) GetRefresh(ctx context.Context, userID uint64) (string, error) {
	jti, err := r.RDB.Get(ctx, r.refreshKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", ErrRedisUnavailable
	}
	return jti, nil
}

// DeleteToken 退出登录：access 与 refresh 一起失效
func (r *SessionRepository) DeleteToken(ctx context.Context, userID uint64) error {
	return r.RDB.Del(ctx, r.key(userID), r.refreshKey(userID)).Err()
}

func (r *SessionRepository) refreshKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserRefreshPrefix, userID)
}
