package handler

import (
	"net/http"
	"strconv"

	"Kampung_Community/internal/middleware"
	"Kampung_Community/internal/pkg"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail 业务错误映射为状态码，未知错误只记日志不外露
func fail(c *gin.Context, err error) {
	status := pkg.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		zap.L().Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"msg": "internal error"})
		return
	}
	c.JSON(status, gin.H{"msg": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": msg})
}

// currentUser 只在鉴权路由下调用
func currentUser(c *gin.Context) (uint64, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "unauthorized"})
	}
	return id, ok
}

func paramID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pageQuery 页码参数缺省时交给 service 使用默认值
func pageQuery(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.Query("page"))
	size, _ = strconv.Atoi(c.Query("size"))
	return page, size
}
