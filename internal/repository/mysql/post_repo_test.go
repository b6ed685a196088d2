package mysql

import (
	"context"
	"testing"
	"time"

	"Kampung_Community/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostListAndCursor(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCommunity(t, db, "punggol")
	alice := seedUser(t, db, "alice@example.com", "Alice")
	repo := &PostRepository{DB: db}

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := &model.Post{CommunityID: c.ID, AuthorID: alice.ID, Title: "p", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Create(ctx, p))
	}

	page, err := repo.ListByCommunity(ctx, c.ID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(5), page[0].ID)

	next, err := repo.ListByCommunityCursor(ctx, c.ID, page[1].ID, page[1].CreatedAt, 10)
	require.NoError(t, err)
	require.Len(t, next, 3)
	assert.Equal(t, uint64(3), next[0].ID)
	assert.Equal(t, uint64(1), next[2].ID)
}

func TestPostDeletePermission(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCommunity(t, db, "yishun")
	admin := seedUser(t, db, "admin@example.com", "Admin")
	author := seedUser(t, db, "author@example.com", "Author")
	stranger := seedUser(t, db, "stranger@example.com", "Stranger")
	members := &CommunityMemberRepository{DB: db}
	_, err := members.Join(ctx, c.ID, admin.ID)
	require.NoError(t, err)
	_, err = members.Join(ctx, c.ID, author.ID)
	require.NoError(t, err)

	repo := &PostRepository{DB: db}
	p1 := seedPost(t, db, c.ID, author.ID)
	p2 := seedPost(t, db, c.ID, author.ID)

	n, err := repo.DeleteWithPermission(ctx, p1.ID, stranger.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteWithPermission(ctx, p1.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteWithPermission(ctx, p2.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.FindByID(ctx, p1.ID)
	assert.Error(t, err)
	ok, err := repo.Exists(ctx, p1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCommentCountFollowsCreateAndDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := seedCommunity(t, db, "sengkang")
	alice := seedUser(t, db, "alice@example.com", "Alice")
	bob := seedUser(t, db, "bob@example.com", "Bob")
	post := seedPost(t, db, c.ID, alice.ID)
	repo := &CommentRepository{DB: db}
	posts := &PostRepository{DB: db}

	c1 := &model.Comment{PostID: post.ID, AuthorID: bob.ID, Content: "seen it at the void deck"}
	require.NoError(t, repo.Create(ctx, c1))
	require.NoError(t, repo.Create(ctx, &model.Comment{PostID: post.ID, AuthorID: alice.ID, Content: "thanks!"}))

	got, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.CommentCount)

	n, err := repo.DeleteWithPermission(ctx, post.ID, c1.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "post author is not a community admin")

	other := seedPost(t, db, c.ID, alice.ID)
	_, err = repo.DeleteWithPermission(ctx, other.ID, c1.ID, bob.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "comment belongs to another post")

	n, err = repo.DeleteWithPermission(ctx, post.ID, c1.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := repo.ListByPost(ctx, post.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "thanks!", list[0].Content)

	got, err = posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CommentCount)
}
