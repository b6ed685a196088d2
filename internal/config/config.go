package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config 服务配置，全部来自环境变量（可选 .env 文件）
type Config struct {
	Env      string `env:"APP_ENV,default=development"`
	HTTPAddr string `env:"HTTP_ADDR,default=:8080"`
	// PublicURL 用于拼接魔法链接与分享链接
	PublicURL string `env:"PUBLIC_URL,default=http://localhost:3000"`

	MySQLDSN string `env:"MYSQL_DSN,default=user:password@tcp(127.0.0.1:3306)/kampung?charset=utf8mb4&parseTime=True&loc=UTC"`

	RedisAddr     string `env:"REDIS_ADDR,default=127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	JWTAccessSecret  string `env:"JWT_ACCESS_SECRET,default=secret-key"`
	JWTRefreshSecret string `env:"JWT_REFRESH_SECRET,default=refresh-key"`

	SMTPHost     string `env:"SMTP_HOST,default=smtp.example.com"`
	SMTPPort     int    `env:"SMTP_PORT,default=587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM,default=Kampung <no-reply@example.com>"`

	OneMapBaseURL string        `env:"ONEMAP_BASE_URL,default=https://www.onemap.gov.sg"`
	OneMapTimeout time.Duration `env:"ONEMAP_TIMEOUT,default=5s"`

	// KafkaBrokers 逗号分隔；为空时 outbox 只打日志
	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=kampung.activity"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS,default=20"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST,default=40"`
}

// Load 先尝试加载 .env，再从环境变量解码
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", f)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, errors.Wrap(err, "decode config")
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Brokers 拆分 kafka broker 列表
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
