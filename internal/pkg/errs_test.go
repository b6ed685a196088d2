package pkg

import (
	"net/http"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Invalid("bad"), http.StatusBadRequest},
		{Unauthorized("who"), http.StatusUnauthorized},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound(gorm.ErrRecordNotFound, "post"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{TooMany("slow down"), http.StatusTooManyRequests},
		{errors.Wrap(Conflict("dup"), "create"), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatus(c.err), c.err.Error())
	}
}

func TestNotFoundKeepsOtherErrors(t *testing.T) {
	boom := errors.New("boom")
	assert.Equal(t, boom, NotFound(boom, "post"))
	assert.Nil(t, NotFound(nil, "post"))
	assert.EqualError(t, NotFound(gorm.ErrRecordNotFound, "post"), "post not found")
}
