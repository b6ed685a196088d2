package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

type PostService struct {
	repo      *mysql.PostRepository
	profiles  *mysql.ProfileRepository
	community *CommunityService
}

func NewPostService(db *gorm.DB, community *CommunityService) *PostService {
	return &PostService{
		repo:      &mysql.PostRepository{DB: db},
		profiles:  &mysql.ProfileRepository{DB: db},
		community: community,
	}
}

// PostView 列表与详情带作者昵称
type PostView struct {
	model.Post
	AuthorName string `json:"author_name"`
}

func validatePost(title string) (string, error) {
	title = strings.TrimSpace(title)
	if n := utf8.RuneCountInString(title); n == 0 || n > 200 {
		return "", pkg.Invalid("title must be 1 to 200 characters")
	}
	return title, nil
}

func (s *PostService) CreatePost(ctx context.Context, userID uint64, slug, title, content string) (*model.Post, error) {
	title, err := validatePost(title)
	if err != nil {
		return nil, err
	}
	c, err := s.community.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	// 判断是否是 community 成员
	if err := s.community.requireMember(ctx, c.ID, userID); err != nil {
		return nil, err
	}

	post := &model.Post{
		CommunityID: c.ID,
		AuthorID:    userID,
		Title:       title,
		Content:     content,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint64) (*PostView, error) {
	post, err := s.repo.FindByID(ctx, postID)
	if err != nil {
		return nil, pkg.NotFound(err, "post")
	}
	views, err := s.withAuthors(ctx, []model.Post{*post})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListByCommunity 社区帖子列表
func (s *PostService) ListByCommunity(ctx context.Context, slug string, page, size int) ([]PostView, error) {
	c, err := s.community.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	offset, limit := pageOffset(page, size)
	list, err := s.repo.ListByCommunity(ctx, c.ID, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.withAuthors(ctx, list)
}

// ListByCommunityCursor 游标分页：首次不传 lastID/lastCreatedAt（或传 0）
// 返回 nextLastID/nextLastCreatedAt（毫秒）供下一页使用
func (s *PostService) ListByCommunityCursor(ctx context.Context, slug string, lastID uint64, lastCreatedAt int64, size int) ([]PostView, uint64, int64, error) {
	c, err := s.community.GetBySlug(ctx, slug)
	if err != nil {
		return nil, 0, 0, err
	}
	_, limit := pageOffset(1, size)
	var cursor time.Time
	if lastCreatedAt > 0 {
		cursor = time.UnixMilli(lastCreatedAt).UTC()
	}
	list, err := s.repo.ListByCommunityCursor(ctx, c.ID, lastID, cursor, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	var nextID uint64
	var nextTS int64
	if len(list) > 0 {
		last := list[len(list)-1]
		nextID = last.ID
		nextTS = last.CreatedAt.UnixMilli()
	}
	views, err := s.withAuthors(ctx, list)
	return views, nextID, nextTS, err
}

func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint64, title, content string) (*PostView, error) {
	title, err := validatePost(title)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.Update(ctx, postID, userID, title, content)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		post, err := s.repo.FindByID(ctx, postID)
		if err != nil {
			return nil, pkg.NotFound(err, "post")
		}
		if post.AuthorID != userID {
			return nil, pkg.Forbidden("only the author can edit this post")
		}
	}
	return s.GetPost(ctx, postID)
}

// DeletePost 幂等删除：成功/已删除均返回 nil；仅无权限时报错
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint64) error {
	affected, err := s.repo.DeleteWithPermission(ctx, postID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		exists, err := s.repo.Exists(ctx, postID)
		if err != nil {
			return err
		}
		if !exists {
			return pkg.NotFound(gorm.ErrRecordNotFound, "post")
		}
		// 还能读到帖子且未删除，则说明无权限
		if _, err := s.repo.FindByID(ctx, postID); err == nil {
			return pkg.Forbidden("no permission")
		}
	}
	return nil
}

// withAuthors 批量补作者昵称
func (s *PostService) withAuthors(ctx context.Context, list []model.Post) ([]PostView, error) {
	ids := lo.Uniq(lo.Map(list, func(p model.Post, _ int) uint64 { return p.AuthorID }))
	profiles, err := s.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(list, func(p model.Post, _ int) PostView {
		return PostView{Post: p, AuthorName: profiles[p.AuthorID].DisplayName}
	}), nil
}
