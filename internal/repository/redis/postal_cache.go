package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PostalLookupPrefix = "postal:lookup:"
	PostalLookupTTL    = 24 * time.Hour
)

// PostalCacheRepository 缓存邮编查询结果（JSON 原文）
type PostalCacheRepository struct {
	RDB *redis.Client
}

func (r *PostalCacheRepository) Get(ctx context.Context, code string) ([]byte, bool, error) {
	b, err := r.RDB.Get(ctx, PostalLookupPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *PostalCacheRepository) Set(ctx context.Context, code string, data []byte) error {
	return r.RDB.Set(ctx, PostalLookupPrefix+code, data, PostalLookupTTL).Err()
}
