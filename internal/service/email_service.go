package service

import (
	"context"
	"crypto/subtle"
	"net/url"
	"strings"

	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/redis"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

type EmailService struct {
	mailer    pkg.Mailer
	rds       *redis.CodeRepository
	publicURL string
}

func NewEmailService(mailer pkg.Mailer, rdb *goredis.Client, publicURL string) *EmailService {
	return &EmailService{
		mailer:    mailer,
		rds:       &redis.CodeRepository{RDB: rdb},
		publicURL: strings.TrimSuffix(publicURL, "/"),
	}
}

func (s *EmailService) throttle(ctx context.Context, email string) error {
	ok, err := s.rds.AcquireSendSlot(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return pkg.TooMany("please wait a minute before requesting another email")
	}
	return nil
}

// SendResetCode 发送重置密码验证码
func (s *EmailService) SendResetCode(ctx context.Context, email string) error {
	if err := s.throttle(ctx, email); err != nil {
		return err
	}
	code, err := pkg.VerifyCode(6)
	if err != nil {
		return err
	}

	// 先写入pending键
	if err = s.rds.SaveResetPending(ctx, email, code); err != nil {
		return err
	}

	html := pkg.EmailCodeHTML("reset your password", code, redis.ResetCodeTTL)
	if err = s.mailer.Send(email, "Your password reset code", html); err != nil {
		_ = s.rds.DeleteResetPending(ctx, email)
		return errors.Wrap(err, "send reset code")
	}

	// 邮件发送后再将pending转为confirmed
	if err = s.rds.ConfirmReset(ctx, email); err != nil {
		_ = s.rds.DeleteResetPending(ctx, email)
		return err
	}
	return nil
}

// VerifyResetCode 校验验证码并一次性删除
func (s *EmailService) VerifyResetCode(ctx context.Context, email, code string) error {
	val, err := s.rds.GetResetConfirmed(ctx, email)
	if errors.Is(err, redis.ErrCodeNotFound) {
		return pkg.Invalid("verification code expired or not requested")
	}
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(val), []byte(code)) != 1 {
		n, err := s.rds.RecordResetFailure(ctx, email)
		if err != nil {
			return err
		}
		if n >= redis.MaxResetAttempts {
			return pkg.Invalid("too many incorrect attempts, request a new code")
		}
		return pkg.Invalid("verification code is incorrect")
	}
	return s.rds.DeleteResetConfirmed(ctx, email)
}

// SendMagicLink 生成一次性登录链接
func (s *EmailService) SendMagicLink(ctx context.Context, email string) error {
	if err := s.throttle(ctx, email); err != nil {
		return err
	}
	token := uuid.NewString()
	if err := s.rds.SaveMagicToken(ctx, token, email); err != nil {
		return err
	}
	link := s.publicURL + "/auth/magic?token=" + url.QueryEscape(token)
	if err := s.mailer.Send(email, "Your sign-in link", pkg.MagicLinkHTML(link, redis.MagicTokenTTL)); err != nil {
		return errors.Wrap(err, "send magic link")
	}
	return nil
}

// ConsumeMagicLink 返回链接对应的邮箱，链接随即失效
func (s *EmailService) ConsumeMagicLink(ctx context.Context, token string) (string, error) {
	email, err := s.rds.ConsumeMagicToken(ctx, token)
	if errors.Is(err, redis.ErrCodeNotFound) {
		return "", pkg.Unauthorized("sign-in link is invalid or has expired")
	}
	return email, err
}
