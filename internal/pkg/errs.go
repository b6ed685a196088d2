package pkg

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

// 业务错误分类，handler 通过 errors.Is 映射为 HTTP 状态码
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidParam = errors.New("invalid params")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTooMany      = errors.New("too many requests")
)

// Invalid 生成带说明的参数错误
func Invalid(msg string) error {
	return errors.Mark(errors.New(msg), ErrInvalidParam)
}

func Forbidden(msg string) error {
	return errors.Mark(errors.New(msg), ErrForbidden)
}

func Conflict(msg string) error {
	return errors.Mark(errors.New(msg), ErrConflict)
}

func Unauthorized(msg string) error {
	return errors.Mark(errors.New(msg), ErrUnauthorized)
}

func TooMany(msg string) error {
	return errors.Mark(errors.New(msg), ErrTooMany)
}

// NotFound 把 gorm 的记录不存在转换为 ErrNotFound，其余错误原样返回
func NotFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Mark(errors.Newf("%s not found", what), ErrNotFound)
	}
	return err
}

// HTTPStatus 错误到状态码
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidParam):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTooMany):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
