package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"Kampung_Community/internal/middleware"
	"Kampung_Community/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func run(path string, h gin.HandlerFunc, pre ...gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/t/:id", append(pre, h)...)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestFail(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{pkg.Invalid("title required"), http.StatusBadRequest, `{"msg":"title required"}`},
		{pkg.Forbidden("no permission"), http.StatusForbidden, `{"msg":"no permission"}`},
		{pkg.TooMany("slow down"), http.StatusTooManyRequests, `{"msg":"slow down"}`},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, `{"msg":"internal error"}`},
	}
	for _, c := range cases {
		w := run("/t/1", func(ctx *gin.Context) { fail(ctx, c.err) })
		assert.Equal(t, c.code, w.Code)
		assert.JSONEq(t, c.body, w.Body.String())
	}
}

func TestParamsAndUser(t *testing.T) {
	echo := func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		page, size := pageQuery(c)
		c.JSON(http.StatusOK, gin.H{"id": id, "page": page, "size": size})
	}
	w := run("/t/42?page=2&size=5", echo)
	assert.JSONEq(t, `{"id":42,"page":2,"size":5}`, w.Body.String())
	assert.Equal(t, http.StatusBadRequest, run("/t/0", echo).Code)
	assert.Equal(t, http.StatusBadRequest, run("/t/x", echo).Code)

	who := func(c *gin.Context) {
		if id, ok := currentUser(c); ok {
			c.JSON(http.StatusOK, gin.H{"id": id})
		}
	}
	assert.Equal(t, http.StatusUnauthorized, run("/t/1", who).Code)
	w = run("/t/1", who, func(c *gin.Context) { c.Set(middleware.ContextUserIDKey, uint64(9)) })
	assert.JSONEq(t, `{"id":9}`, w.Body.String())
}
