// Package testutil 测试公共工具：内存数据库、内存 Redis 以及外部依赖的替身
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试独立的 sqlite 内存库，已完成迁移和邮区数据
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库按连接隔离，只能用一个连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, mysql.AutoMigrate(db))
	return db
}

// NewRedis 启动 miniredis 并返回连接它的客户端
func NewRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

// Mail 一封被记录的邮件
type Mail struct {
	To      string
	Subject string
	Body    string
}

// MockMailer 记录发出的邮件；Err 非空时发送失败
type MockMailer struct {
	mu   sync.Mutex
	Err  error
	sent []Mail
}

func (m *MockMailer) Send(to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Mail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

func (m *MockMailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

// MockGeocoder 按邮编返回固定地址
type MockGeocoder struct {
	mu        sync.Mutex
	Addresses map[string][]pkg.Address
	Err       error
	Calls     int
}

func (g *MockGeocoder) Search(_ context.Context, postal string) ([]pkg.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Addresses[postal], nil
}

// AssertIs 业务错误通过 errors.Mark 标记分类，标准库 errors.Is 看不到标记
func AssertIs(t *testing.T, err, target error, msgAndArgs ...any) bool {
	t.Helper()
	if errors.Is(err, target) {
		return true
	}
	return assert.Fail(t, fmt.Sprintf("error %v is not marked as %q", err, target), msgAndArgs...)
}
