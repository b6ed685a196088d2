package service

import (
	"context"
	"net/mail"
	"strings"
	"unicode/utf8"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"
	"Kampung_Community/internal/repository/redis"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const MinPasswordLen = 8

type UserService struct {
	repo     *mysql.UserRepository
	sessions *redis.SessionRepository
	emailSvc *EmailService
}

func NewUserService(db *gorm.DB, rdb *goredis.Client, emailSvc *EmailService) *UserService {
	return &UserService{
		repo:     &mysql.UserRepository{DB: db},
		sessions: &redis.SessionRepository{RDB: rdb},
		emailSvc: emailSvc,
	}
}

// NormalizeEmail 去空格并小写，非法地址返回参数错误
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", pkg.Invalid("invalid email address")
	}
	return email, nil
}

func checkPassword(pw string) error {
	if utf8.RuneCountInString(pw) < MinPasswordLen {
		return pkg.Invalid("password must be at least 8 characters")
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*model.User, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.SplitN(email, "@", 2)[0]
	}
	if utf8.RuneCountInString(displayName) > 50 {
		return nil, pkg.Invalid("display name must be at most 50 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Email: email, Password: string(hash)}
	if err := s.repo.Create(ctx, user, displayName); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, pkg.Conflict("email already registered")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*pkg.Pair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, pkg.Unauthorized("invalid email or password")
	}
	return s.issue(ctx, user)
}

// issue 签发并把 access token 写入 redis
func (s *UserService) issue(ctx context.Context, user *model.User) (*pkg.Pair, error) {
	pair, err := pkg.GeneratePair(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveToken(ctx, user.ID, pair.AccessToken); err != nil {
		return nil, err
	}
	if err := s.sessions.SaveRefresh(ctx, user.ID, pair.RefreshID, pkg.RefreshTTL); err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.sessions.DeleteToken(ctx, userID)
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := pkg.ParseRefresh(refreshToken)
	if err != nil {
		return nil, pkg.Unauthorized(err.Error())
	}
	// 只有最近一次签发的 refresh 可用；退出登录或改密后登记被删除
	current, err := s.sessions.GetRefresh(ctx, claims.UserID)
	if errors.Is(err, redis.ErrTokenNotFound) || (err == nil && current != claims.ID) {
		return nil, pkg.Unauthorized("refresh token revoked")
	}
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.Unauthorized("user no longer exists")
	}
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// RequestMagicLink 未注册的邮箱也可以申请，首次使用时自动建号
func (s *UserService) RequestMagicLink(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	return s.emailSvc.SendMagicLink(ctx, email)
}

func (s *UserService) VerifyMagicLink(ctx context.Context, token string) (*pkg.Pair, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkg.Invalid("token required")
	}
	email, err := s.emailSvc.ConsumeMagicLink(ctx, token)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 首次登录：随机密码占位，之后可通过重置密码设置
		random, err := pkg.RandHex(16)
		if err != nil {
			return nil, err
		}
		if user, err = s.Register(ctx, email, random, ""); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// SendResetCode 邮箱未注册时静默成功，不暴露账号是否存在
func (s *UserService) SendResetCode(ctx context.Context, email string) error {
	email, err := NormalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := s.repo.FindByEmail(ctx, email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.emailSvc.SendResetCode(ctx, email)
}

func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	if err := s.emailSvc.VerifyResetCode(ctx, email, code); err != nil {
		return err
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return pkg.NotFound(err, "user")
	}
	if err := s.setPassword(ctx, user.ID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, user.ID)
}

// ChangePassword 登录态修改密码
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	if err := checkPassword(newPassword); err != nil {
		return err
	}
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return pkg.NotFound(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return pkg.Invalid("old password is incorrect")
	}
	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}
	return s.Logout(ctx, userID)
}

func (s *UserService) setPassword(ctx context.Context, userID uint64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}
