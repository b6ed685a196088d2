package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeProgress(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	gb := &model.GroupBuy{
		CurrentQuantity: 3, TargetQuantity: 4, ParticipantCount: 2,
		Status: model.GroupBuyOpen, Deadline: now.Add(26*time.Hour + 30*time.Minute),
	}
	p := ComputeProgress(gb, now)
	assert.Equal(t, 75, p.Percent)
	assert.Equal(t, int64(1), p.Remaining)
	assert.False(t, p.Reached)
	assert.Equal(t, "1d 2h left", p.TimeLeft)

	gb.CurrentQuantity = 9
	p = ComputeProgress(gb, now)
	assert.Equal(t, 100, p.Percent)
	assert.Zero(t, p.Remaining)
	assert.True(t, p.Reached)

	p = ComputeProgress(gb, now.Add(48*time.Hour))
	assert.Equal(t, "ended", p.TimeLeft)
	assert.Zero(t, p.TimeLeftSeconds)
}

func TestGroupBuyFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e.groupBuys.now = fixedNow(now)
	alice := e.register(t, "alice@example.com", "Alice")
	bob := e.register(t, "bob@example.com", "Bob")
	outsider := e.register(t, "out@example.com", "Outsider")
	e.communityWith(t, "tampines", alice, bob)

	req := CreateGroupBuyReq{
		Title:          "Mao Shan Wang durians",
		UnitPrice:      decimal.RequireFromString("18.5"),
		TargetQuantity: 5,
		Deadline:       now.Add(-time.Hour),
	}
	_, err := e.groupBuys.Create(ctx, alice, "tampines", req)
	testutil.AssertIs(t, err, pkg.ErrInvalidParam, "deadline in the past")

	req.Deadline = now.Add(72 * time.Hour)
	_, err = e.groupBuys.Create(ctx, outsider, "tampines", req)
	testutil.AssertIs(t, err, pkg.ErrForbidden)

	gb, err := e.groupBuys.Create(ctx, alice, "tampines", req)
	require.NoError(t, err)
	assert.Equal(t, "Alice", gb.CreatorName)
	assert.Equal(t, model.GroupBuyOpen, gb.Status)

	_, err = e.groupBuys.Join(ctx, bob, gb.ID, 0, "")
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)
	_, err = e.groupBuys.Join(ctx, outsider, gb.ID, 1, "")
	testutil.AssertIs(t, err, pkg.ErrForbidden)

	_, err = e.groupBuys.MyParticipation(ctx, bob, gb.ID)
	testutil.AssertIs(t, err, pkg.ErrNotFound)

	res, err := e.groupBuys.Join(ctx, bob, gb.ID, 2, "")
	require.NoError(t, err)
	assert.False(t, res.Reached)
	mine, err := e.groupBuys.MyParticipation(ctx, bob, gb.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Quantity)
	_, err = e.groupBuys.MyParticipation(ctx, bob, 9999)
	testutil.AssertIs(t, err, pkg.ErrNotFound)
	assert.Equal(t, 40, res.Detail.Progress.Percent)
	assert.True(t, decimal.RequireFromString("37").Equal(res.Detail.EstimatedTotal))

	res, err = e.groupBuys.Join(ctx, alice, gb.ID, 3, "")
	require.NoError(t, err)
	assert.True(t, res.Reached)
	assert.True(t, res.Detail.Progress.Reached)

	people, err := e.groupBuys.Participants(ctx, gb.ID)
	require.NoError(t, err)
	assert.Len(t, people, 2)

	detail, err := e.groupBuys.Leave(ctx, bob, gb.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), detail.Progress.CurrentQuantity)
	assert.Equal(t, int64(1), detail.Progress.ParticipantCount)
	_, err = e.groupBuys.MyParticipation(ctx, bob, gb.ID)
	testutil.AssertIs(t, err, pkg.ErrNotFound, "left")

	_, err = e.groupBuys.Close(ctx, bob, gb.ID)
	testutil.AssertIs(t, err, pkg.ErrForbidden)
	closed, err := e.groupBuys.Close(ctx, alice, gb.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GroupBuyClosed, closed.Status)
	_, err = e.groupBuys.Close(ctx, alice, gb.ID)
	testutil.AssertIs(t, err, pkg.ErrConflict)

	_, err = e.groupBuys.Join(ctx, bob, gb.ID, 1, "")
	testutil.AssertIs(t, err, pkg.ErrConflict)

	list, err := e.groupBuys.ListByCommunity(ctx, "tampines", model.GroupBuyClosed, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, gb.ID, list[0].ID)

	// 每条的进度取自自己那一行
	req.Title = "Kaya jars"
	req.TargetQuantity = 10
	jars, err := e.groupBuys.Create(ctx, bob, "tampines", req)
	require.NoError(t, err)
	_, err = e.groupBuys.Join(ctx, bob, jars.ID, 4, "")
	require.NoError(t, err)
	all, err := e.groupBuys.ListByCommunity(ctx, "tampines", "", 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, d := range all {
		assert.Equal(t, d.CurrentQuantity, d.Progress.CurrentQuantity, d.Title)
		assert.Equal(t, d.TargetQuantity, d.Progress.TargetQuantity, d.Title)
	}
	assert.Equal(t, 40, all[0].Progress.Percent, "newest first")
	_, err = e.groupBuys.ListByCommunity(ctx, "tampines", "bogus", 1, 10)
	testutil.AssertIs(t, err, pkg.ErrInvalidParam)
}

func TestGroupBuyExpiry(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	e.groupBuys.now = fixedNow(now)
	alice := e.register(t, "alice@example.com", "Alice")
	e.communityWith(t, "bedok", alice)

	gb, err := e.groupBuys.Create(ctx, alice, "bedok", CreateGroupBuyReq{
		Title: "Rice sacks", TargetQuantity: 10, Deadline: now.Add(time.Hour),
	})
	require.NoError(t, err)

	e.groupBuys.now = fixedNow(now.Add(2 * time.Hour))
	_, err = e.groupBuys.Join(ctx, alice, gb.ID, 1, "")
	testutil.AssertIs(t, err, pkg.ErrConflict)

	n, err := e.groupBuys.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := e.groupBuys.Get(ctx, gb.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GroupBuyExpired, got.Status)
	assert.Equal(t, "ended", got.Progress.TimeLeft)
}

func TestGroupBuyCommentsAndShare(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.register(t, "alice@example.com", "Alice")
	bob := e.register(t, "bob@example.com", "Bob")
	e.communityWith(t, "woodlands", alice, bob)
	gb, err := e.groupBuys.Create(ctx, alice, "woodlands", CreateGroupBuyReq{
		Title: "Kaya & eggs", UnitPrice: decimal.RequireFromString("4"), TargetQuantity: 20,
		Deadline: time.Now().UTC().Add(24 * time.Hour),
	})
	require.NoError(t, err)

	c, err := e.groupBuys.CreateComment(ctx, bob, gb.ID, "I'll take two")
	require.NoError(t, err)
	other, err := e.groupBuys.Create(ctx, bob, "woodlands", CreateGroupBuyReq{
		Title: "Durian", TargetQuantity: 5, Deadline: time.Now().UTC().Add(24 * time.Hour),
	})
	require.NoError(t, err)
	testutil.AssertIs(t, e.groupBuys.DeleteComment(ctx, bob, other.ID, c.ID), pkg.ErrNotFound, "comment is scoped to its group buy")
	list, err := e.groupBuys.ListComments(ctx, gb.ID, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	_, err = e.groupBuys.ListComments(ctx, 9999, 1, 20)
	testutil.AssertIs(t, err, pkg.ErrNotFound)

	testutil.AssertIs(t, e.groupBuys.DeleteComment(ctx, 999, gb.ID, c.ID), pkg.ErrForbidden)
	require.NoError(t, e.groupBuys.DeleteComment(ctx, bob, gb.ID, c.ID))
	testutil.AssertIs(t, e.groupBuys.DeleteComment(ctx, bob, gb.ID, c.ID), pkg.ErrNotFound)

	links, err := e.groupBuys.Share(ctx, gb.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://kampung.test/groupbuy/1", links.URL)
	assert.Contains(t, links.Message, "Kaya & eggs")
	assert.Contains(t, links.Message, "S$4.00 each")
	assert.True(t, strings.HasPrefix(links.WhatsApp, "https://wa.me/?text="))

	tg, err := url.Parse(links.Telegram)
	require.NoError(t, err)
	assert.Equal(t, "t.me", tg.Host)
	assert.Equal(t, links.URL, tg.Query().Get("url"))
	assert.Equal(t, links.Message, tg.Query().Get("text"))
}
