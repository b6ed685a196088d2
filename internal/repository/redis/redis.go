package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// Client 进程内共享的客户端，main 启动时初始化
var Client *redis.Client

// Options 连接参数
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient 创建客户端并 Ping 一次
func NewClient(ctx context.Context, o Options) (*redis.Client, error) {
	c := redis.NewClient(&redis.Options{
		Addr:         o.Addr,
		Password:     o.Password,
		DB:           o.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, errors.Wrapf(err, "ping redis %s", o.Addr)
	}
	return c, nil
}

func Init(addr, password string, db int) error {
	c, err := NewClient(context.Background(), Options{Addr: addr, Password: password, DB: db})
	if err != nil {
		return err
	}
	Client = c
	return nil
}

// Close 程序退出时调用
func Close() error {
	if Client == nil {
		return nil
	}
	return Client.Close()
}
