package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type env struct {
	db       *gorm.DB
	mr       *miniredis.Miniredis
	rdb      *redis.Client
	mailer   *testutil.MockMailer
	geocoder *testutil.MockGeocoder

	users      *UserService
	postal     *PostalService
	community  *CommunityService
	profiles   *ProfileService
	posts      *PostService
	comments   *CommentService
	votes      *VoteService
	groupBuys  *GroupBuyService
	reconciler *ScoreReconciler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	mr, rdb := testutil.NewRedis(t)
	log := zap.NewNop()
	e := &env{
		db:       db,
		mr:       mr,
		rdb:      rdb,
		mailer:   &testutil.MockMailer{},
		geocoder: &testutil.MockGeocoder{Addresses: map[string][]pkg.Address{}},
	}
	e.users = NewUserService(db, rdb, NewEmailService(e.mailer, rdb, "https://kampung.test/"))
	e.postal = NewPostalService(db, rdb, e.geocoder, log)
	e.community = NewCommunityService(db)
	e.profiles = NewProfileService(db)
	e.posts = NewPostService(db, e.community)
	e.comments = NewCommentService(db, e.community)
	e.votes = NewVoteService(db, rdb, log)
	e.votes.secondDelete = 0
	e.groupBuys = NewGroupBuyService(db, e.community, "https://kampung.test", log)
	e.reconciler = NewScoreReconciler(db, rdb, log)
	return e
}

// register 注册用户并返回 id
func (e *env) register(t *testing.T, email, name string) uint64 {
	t.Helper()
	u, err := e.users.Register(context.Background(), email, "password123", name)
	require.NoError(t, err)
	return u.ID
}

// communityWith 建社区并让用户依次加入，第一个成为管理员
func (e *env) communityWith(t *testing.T, slug string, members ...uint64) *model.Community {
	t.Helper()
	ctx := context.Background()
	c, err := e.postal.community.Ensure(ctx, &model.Community{
		Slug: slug, Name: slug, Kind: model.KindEstate, Sector: "52", District: 18, Region: "East",
	})
	require.NoError(t, err)
	for _, id := range members {
		_, err := e.community.JoinCommunity(ctx, id, slug)
		require.NoError(t, err)
	}
	return c
}

var (
	codePattern  = regexp.MustCompile(`(\d{6})</b>`)
	tokenPattern = regexp.MustCompile(`token=([0-9a-f-]{36})`)
)

func lastMail(t *testing.T, m *testutil.MockMailer) testutil.Mail {
	t.Helper()
	sent := m.Sent()
	require.NotEmpty(t, sent)
	return sent[len(sent)-1]
}

func fixedNow(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}
