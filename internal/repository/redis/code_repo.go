package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ResetCodeTTL   = 5 * time.Minute
	MagicTokenTTL  = 15 * time.Minute
	SendCooldown   = time.Minute
	ResetKeyPrefix = "email:code:reset"
	MagicKeyPrefix = "email:magic"
	CooldownPrefix = "email:cooldown"

	// 两阶段键
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
	AttemptsSuffix  = "attempts"

	// MaxResetAttempts 连续输错达到次数后验证码作废
	MaxResetAttempts = 5
)

var (
	ErrCodeNotFound        = errors.New("code not found")
	ErrCodeConfirmedFailed = errors.New("code confirm failed")
)

// promoteScript 原子执行：取值+写入目标+设置 TTL+删除源
var promoteScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`)

// failScript 错误次数+1，首次设置过期；达到上限时连同验证码一起删除
var failScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if n >= tonumber(ARGV[2]) then
  redis.call("DEL", KEYS[1], KEYS[2])
end
return n
`)

// CodeRepository 邮件验证码与魔法链接
type CodeRepository struct {
	RDB *redis.Client
}

func resetKey(phase, email string) string {
	return fmt.Sprintf("%s:%s:%s", ResetKeyPrefix, phase, email)
}

// SaveResetPending 邮件发出前先写 pending
func (r *CodeRepository) SaveResetPending(ctx context.Context, email, code string) error {
	return r.RDB.Set(ctx, resetKey(PendingSuffix, email), code, ResetCodeTTL).Err()
}

// ConfirmReset 邮件发送成功后 pending -> confirmed
func (r *CodeRepository) ConfirmReset(ctx context.Context, email string) error {
	px := int64(ResetCodeTTL / time.Millisecond)
	ok, err := promoteScript.Run(ctx, r.RDB, []string{resetKey(PendingSuffix, email), resetKey(ConfirmedSuffix, email)}, px).Int()
	if err != nil || ok != 1 {
		return ErrCodeConfirmedFailed
	}
	// 新验证码重新计数
	return r.RDB.Del(ctx, resetKey(AttemptsSuffix, email)).Err()
}

// DeleteResetPending 发送失败时清理（幂等）
func (r *CodeRepository) DeleteResetPending(ctx context.Context, email string) error {
	return r.RDB.Del(ctx, resetKey(PendingSuffix, email)).Err()
}

func (r *CodeRepository) GetResetConfirmed(ctx context.Context, email string) (string, error) {
	val, err := r.RDB.Get(ctx, resetKey(ConfirmedSuffix, email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	return val, err
}

func (r *CodeRepository) DeleteResetConfirmed(ctx context.Context, email string) error {
	return r.RDB.Del(ctx, resetKey(ConfirmedSuffix, email), resetKey(AttemptsSuffix, email)).Err()
}

// RecordResetFailure 记录一次输错，返回累计次数
func (r *CodeRepository) RecordResetFailure(ctx context.Context, email string) (int64, error) {
	px := int64(ResetCodeTTL / time.Millisecond)
	keys := []string{resetKey(AttemptsSuffix, email), resetKey(ConfirmedSuffix, email)}
	return failScript.Run(ctx, r.RDB, keys, px, MaxResetAttempts).Int64()
}

func (r *CodeRepository) SaveMagicToken(ctx context.Context, token, email string) error {
	return r.RDB.Set(ctx, MagicKeyPrefix+":"+token, email, MagicTokenTTL).Err()
}

// ConsumeMagicToken 一次性：GETDEL 取出即失效
func (r *CodeRepository) ConsumeMagicToken(ctx context.Context, token string) (string, error) {
	email, err := r.RDB.GetDel(ctx, MagicKeyPrefix+":"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	return email, err
}

// AcquireSendSlot 同一邮箱一分钟内只发一封
func (r *CodeRepository) AcquireSendSlot(ctx context.Context, email string) (bool, error) {
	return r.RDB.SetNX(ctx, CooldownPrefix+":"+email, 1, SendCooldown).Result()
}
