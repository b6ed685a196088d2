package service

import (
	"context"
	"errors"
	"testing"

	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/redis"
	"Kampung_Community/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, "  Alice@Example.com ", "password123", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)

	_, err = e.users.Register(ctx, "alice@example.com", "password456", "Other")
	testutil.AssertIs(t, err, pkg.ErrConflict)
	_, err = e.users.Register(ctx, "bob@example.com", "short", "Bob")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)
	_, err = e.users.Register(ctx, "not-an-email", "password123", "Bob")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)

	_, err = e.users.Login(ctx, "alice@example.com", "wrong-password")
	testutil.AssertIs(t, err, pkg.ErrUnauthorized)
	_, err = e.users.Login(ctx, "nobody@example.com", "password123")
	testutil.AssertIs(t, err, pkg.ErrUnauthorized)

	pair, err := e.users.Login(ctx, "ALICE@example.com", "password123")
	require.NoError(t, err)
	pinned, err := e.users.sessions.GetToken(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, pinned)

	claims, err := pkg.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	me, err := e.profiles.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", me.DisplayName)
	assert.Equal(t, "alice@example.com", me.Email)
}

func TestRefreshAndLogout(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "alice@example.com", "Alice")

	pair, err := e.users.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = e.users.Refresh(ctx, pair.AccessToken)
	testutil.AssertIs(t, err, pkg.ErrUnauthorized, "access token is not a refresh token")

	next, err := e.users.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	pinned, err := e.users.sessions.GetToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, next.AccessToken, pinned)

	// 刷新后旧的 refresh 作废
	_, err = e.users.Refresh(ctx, pair.RefreshToken)
	testutil.AssertIs(t, err, pkg.ErrUnauthorized)

	require.NoError(t, e.users.Logout(ctx, id))
	_, err = e.users.sessions.GetToken(ctx, id)
	testutil.AssertIs(t, err, redis.ErrTokenNotFound)
	_, err = e.users.Refresh(ctx, next.RefreshToken)
	testutil.AssertIs(t, err, pkg.ErrUnauthorized, "logout revokes the refresh token")
}

func TestMagicLinkCreatesUserOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.users.RequestMagicLink(ctx, "New@Example.com"))
	mail := lastMail(t, e.mailer)
	assert.Equal(t, "new@example.com", mail.To)
	assert.Contains(t, mail.Body, "https://kampung.test/auth/magic?token=")
	m := tokenPattern.FindStringSubmatch(mail.Body)
	require.Len(t, m, 2)

	// 一分钟内不能重复申请
	err := e.users.RequestMagicLink(ctx, "new@example.com")
	testutil.AssertIs(t, err, pkg.ErrTooMany)

	pair, err := e.users.VerifyMagicLink(ctx, m[1])
	require.NoError(t, err)
	claims, err := pkg.ParseAccess(pair.AccessToken)
	require.NoError(t, err)

	me, err := e.profiles.Me(ctx, claims.UserID)
	require.NoError(t, err)
	assert.Equal(t, "new", me.DisplayName)

	_, err = e.users.VerifyMagicLink(ctx, m[1])
	testutil.AssertIs(t, err, pkg.ErrUnauthorized, "link is single use")
}

func TestResetPasswordFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "alice@example.com", "Alice")
	stolen, err := e.users.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	// 未注册邮箱静默成功且不发信
	require.NoError(t, e.users.SendResetCode(ctx, "ghost@example.com"))
	assert.Empty(t, e.mailer.Sent())

	require.NoError(t, e.users.SendResetCode(ctx, "alice@example.com"))
	m := codePattern.FindStringSubmatch(lastMail(t, e.mailer).Body)
	require.Len(t, m, 2)

	wrong := "000000"
	if m[1] == wrong {
		wrong = "111111"
	}
	err = e.users.ResetPassword(ctx, "alice@example.com", wrong, "newpassword1")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)

	require.NoError(t, e.users.ResetPassword(ctx, "alice@example.com", m[1], "newpassword1"))
	_, err = e.users.sessions.GetToken(ctx, id)
	testutil.AssertIs(t, err, redis.ErrTokenNotFound, "reset logs the user out")
	_, err = e.users.Refresh(ctx, stolen.RefreshToken)
	testutil.AssertIs(t, err, pkg.ErrUnauthorized, "reset revokes the refresh token")

	err = e.users.ResetPassword(ctx, "alice@example.com", m[1], "newpassword2")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam, "code is consumed")

	_, err = e.users.Login(ctx, "alice@example.com", "newpassword1")
	assert.NoError(t, err)
}

func TestResetCodeLockedAfterWrongGuesses(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "Alice")

	require.NoError(t, e.users.SendResetCode(ctx, "alice@example.com"))
	m := codePattern.FindStringSubmatch(lastMail(t, e.mailer).Body)
	require.Len(t, m, 2)

	wrong := "000000"
	if m[1] == wrong {
		wrong = "111111"
	}
	for i := 0; i < redis.MaxResetAttempts; i++ {
		err := e.users.ResetPassword(ctx, "alice@example.com", wrong, "newpassword1")
		testutil.AssertIs(t, err, pkg.ErrInvalidParam)
	}

	err := e.users.ResetPassword(ctx, "alice@example.com", m[1], "newpassword1")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam, "right code is burned after too many misses")
	_, err = e.users.Login(ctx, "alice@example.com", "password123")
	assert.NoError(t, err, "password unchanged")
}

func TestResetCodeMailFailureLeavesNoCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "alice@example.com", "Alice")
	e.mailer.Err = errors.New("smtp down")

	assert.Error(t, e.users.SendResetCode(ctx, "alice@example.com"))
	assert.False(t, e.mr.Exists("email:code:reset:pending:alice@example.com"))
	assert.False(t, e.mr.Exists("email:code:reset:confirmed:alice@example.com"))
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	id := e.register(t, "alice@example.com", "Alice")
	pair, err := e.users.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	err = e.users.ChangePassword(ctx, id, "wrong-old", "newpassword1")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)

	require.NoError(t, e.users.ChangePassword(ctx, id, "password123", "newpassword1"))
	_, err = e.users.Refresh(ctx, pair.RefreshToken)
	testutil.AssertIs(t, err, pkg.ErrUnauthorized)
	_, err = e.users.Login(ctx, "alice@example.com", "password123")
	testutil.AssertIs(t, err, pkg.ErrUnauthorized)
	_, err = e.users.Login(ctx, "alice@example.com", "newpassword1")
	assert.NoError(t, err)
}
