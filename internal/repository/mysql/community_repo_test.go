package mysql

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"Kampung_Community/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSeedSectors(t *testing.T) {
	db := newTestDB(t)
	repo := &PostalRepository{DB: db}
	ctx := context.Background()

	// 二次写入不报错
	require.NoError(t, repo.Seed(DefaultSectors()))

	list, err := repo.ListSectors(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 81)

	s, err := repo.FindSector(ctx, "56")
	require.NoError(t, err)
	assert.Equal(t, 20, s.District)
	assert.Equal(t, "North-East", s.Region)
}

func TestEnsureCommunityIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	a := seedCommunity(t, db, "the-pinnacle-duxton")
	b := seedCommunity(t, db, "the-pinnacle-duxton")
	assert.Equal(t, a.ID, b.ID)

	list, err := (&CommunityRepository{DB: db}).List(context.Background(), "Central", 0, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestJoinLeaveCountsAndAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCommunity(t, db, "ang-mo-kio")
	alice := seedUser(t, db, "alice@example.com", "Alice")
	bob := seedUser(t, db, "bob@example.com", "Bob")
	repo := &CommunityMemberRepository{DB: db}
	communities := &CommunityRepository{DB: db}

	joined, err := repo.Join(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, joined)

	joined, err = repo.Join(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, joined)

	joined, err = repo.Join(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, joined)

	got, err := communities.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.MemberCount)

	m, err := repo.Find(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MemberRoleAdmin, m.Role)
	m, err = repo.Find(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MemberRoleMember, m.Role)

	members, err := repo.ListMembers(ctx, c.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Alice", members[0].DisplayName)
	assert.Equal(t, "Bob", members[1].DisplayName)

	left, err := repo.Leave(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, left)
	left, err = repo.Leave(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, left)

	got, err = communities.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.MemberCount)

	mine, err := repo.ListCommunitiesOfUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ang-mo-kio", mine[0].Slug)

	var events int64
	require.NoError(t, db.Model(&model.ActivityOutbox{}).Where("event_type = ?", model.EventCommunityJoined).Count(&events).Error)
	assert.Equal(t, int64(2), events)
}

func TestConcurrentJoinHasSingleAdmin(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCommunity(t, db, "tampines")
	repo := &CommunityMemberRepository{DB: db}

	const n = 6
	users := make([]*model.User, n)
	for i := range users {
		users[i] = seedUser(t, db, fmt.Sprintf("u%d@example.com", i), fmt.Sprintf("U%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, u := range users {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			_, err := repo.Join(ctx, c.ID, id)
			errs <- err
		}(u.ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var admins int64
	require.NoError(t, db.Model(&model.CommunityMember{}).
		Where("community_id = ? AND role = ?", c.ID, model.MemberRoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(1), admins)

	got, err := (&CommunityRepository{DB: db}).FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.MemberCount)

	_, err = repo.Join(ctx, 99999, users[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
