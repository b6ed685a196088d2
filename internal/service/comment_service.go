package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

const maxCommentLen = 2000

type CommentService struct {
	repo      *mysql.CommentRepository
	posts     *mysql.PostRepository
	profiles  *mysql.ProfileRepository
	community *CommunityService
}

func NewCommentService(db *gorm.DB, community *CommunityService) *CommentService {
	return &CommentService{
		repo:      &mysql.CommentRepository{DB: db},
		posts:     &mysql.PostRepository{DB: db},
		profiles:  &mysql.ProfileRepository{DB: db},
		community: community,
	}
}

type CommentView struct {
	model.Comment
	AuthorName string `json:"author_name"`
}

func (s *CommentService) CreateComment(ctx context.Context, userID, postID uint64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxCommentLen {
		return nil, pkg.Invalid("comment must be 1 to 2000 characters")
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, pkg.NotFound(err, "post")
	}
	if err := s.community.requireMember(ctx, post.CommunityID, userID); err != nil {
		return nil, err
	}

	c := &model.Comment{PostID: postID, AuthorID: userID, Content: content}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByPost 按时间正序
func (s *CommentService) ListByPost(ctx context.Context, postID uint64, page, size int) ([]CommentView, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, pkg.NotFound(err, "post")
	}
	offset, limit := pageOffset(page, size)
	list, err := s.repo.ListByPost(ctx, postID, offset, limit)
	if err != nil {
		return nil, err
	}
	ids := lo.Uniq(lo.Map(list, func(c model.Comment, _ int) uint64 { return c.AuthorID }))
	profiles, err := s.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return lo.Map(list, func(c model.Comment, _ int) CommentView {
		return CommentView{Comment: c, AuthorName: profiles[c.AuthorID].DisplayName}
	}), nil
}

// DeleteComment 与帖子删除一致：已删除视为成功
func (s *CommentService) DeleteComment(ctx context.Context, userID, postID, commentID uint64) error {
	affected, err := s.repo.DeleteWithPermission(ctx, postID, commentID, userID)
	if err != nil {
		return pkg.NotFound(err, "comment")
	}
	if affected == 0 {
		if _, err := s.repo.FindByID(ctx, commentID); err == nil {
			return pkg.Forbidden("no permission")
		}
	}
	return nil
}
