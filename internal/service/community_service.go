package service

import (
	"context"
	"strings"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
)

type CommunityService struct {
	repo       *mysql.CommunityRepository
	memberRepo *mysql.CommunityMemberRepository
	profiles   *mysql.ProfileRepository
}

func NewCommunityService(db *gorm.DB) *CommunityService {
	return &CommunityService{
		repo:       &mysql.CommunityRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
		profiles:   &mysql.ProfileRepository{DB: db},
	}
}

// Membership 当前用户在社区中的身份
type Membership struct {
	IsMember bool `json:"is_member"`
	IsAdmin  bool `json:"is_admin"`
}

// pageOffset 页码从 1 开始，size 默认 20，最大 50
func pageOffset(page, size int) (offset, limit int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 50 {
		size = 20
	}
	return (page - 1) * size, size
}

func (s *CommunityService) GetBySlug(ctx context.Context, slug string) (*model.Community, error) {
	c, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return nil, pkg.NotFound(err, "community")
	}
	return c, nil
}

func (s *CommunityService) ListCommunities(ctx context.Context, region string, page, size int) ([]model.Community, error) {
	offset, limit := pageOffset(page, size)
	return s.repo.List(ctx, strings.TrimSpace(region), offset, limit)
}

func (s *CommunityService) JoinCommunity(ctx context.Context, userID uint64, slug string) (*model.Community, error) {
	c, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberRepo.Join(ctx, c.ID, userID); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, c.ID)
}

// LeaveCommunity 退出时若它是主页社区则一并清空
func (s *CommunityService) LeaveCommunity(ctx context.Context, userID uint64, slug string) (*model.Community, error) {
	c, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	left, err := s.memberRepo.Leave(ctx, c.ID, userID)
	if err != nil {
		return nil, err
	}
	if left {
		p, err := s.profiles.FindByUserID(ctx, userID)
		if err == nil && p.HomeCommunityID != nil && *p.HomeCommunityID == c.ID {
			if err := s.profiles.Update(ctx, userID, map[string]any{"home_community_id": nil}); err != nil {
				return nil, err
			}
		}
	}
	return s.repo.FindByID(ctx, c.ID)
}

func (s *CommunityService) Membership(ctx context.Context, userID uint64, slug string) (*Membership, error) {
	c, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	m, err := s.memberRepo.Find(ctx, c.ID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Membership{}, nil
		}
		return nil, err
	}
	return &Membership{IsMember: true, IsAdmin: m.Role >= model.MemberRoleAdmin}, nil
}

func (s *CommunityService) ListMembers(ctx context.Context, slug string, page, size int) ([]model.MemberView, error) {
	c, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	offset, limit := pageOffset(page, size)
	return s.memberRepo.ListMembers(ctx, c.ID, offset, limit)
}

func (s *CommunityService) MyCommunities(ctx context.Context, userID uint64) ([]model.Community, error) {
	return s.memberRepo.ListCommunitiesOfUser(ctx, userID)
}

// requireMember 发帖、评论、团购等写操作前的成员校验
func (s *CommunityService) requireMember(ctx context.Context, communityID, userID uint64) error {
	ok, err := s.memberRepo.IsMember(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return pkg.Forbidden("join the community first")
	}
	return nil
}
