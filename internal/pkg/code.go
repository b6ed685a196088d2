package pkg

import (
	"crypto/rand"
	"encoding/hex"
)

const digits = "0123456789"

// VerifyCode 邮件验证码，n 位数字
func VerifyCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	// 250 是 10 的倍数，丢弃 >=250 的字节避免取模偏差
	out := make([]byte, 0, n)
	for len(out) < n {
		for _, b := range buf {
			if b < 250 && len(out) < n {
				out = append(out, digits[b%10])
			}
		}
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
	}
	return string(out), nil
}

// RandHex 魔法链接首次登录时生成的占位密码
func RandHex(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
