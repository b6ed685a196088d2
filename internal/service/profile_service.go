package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"gorm.io/gorm"
)

type ProfileService struct {
	repo       *mysql.ProfileRepository
	users      *mysql.UserRepository
	memberRepo *mysql.CommunityMemberRepository
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{
		repo:       &mysql.ProfileRepository{DB: db},
		users:      &mysql.UserRepository{DB: db},
		memberRepo: &mysql.CommunityMemberRepository{DB: db},
	}
}

// Me 自己的资料带邮箱
type Me struct {
	*model.UserProfile
	Email string `json:"email"`
}

// UpdateProfileReq 为 nil 的字段不修改
type UpdateProfileReq struct {
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
	Bio         *string `json:"bio"`
}

func (s *ProfileService) Get(ctx context.Context, userID uint64) (*model.UserProfile, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkg.NotFound(err, "profile")
	}
	return p, nil
}

func (s *ProfileService) Me(ctx context.Context, userID uint64) (*Me, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkg.NotFound(err, "user")
	}
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Me{UserProfile: p, Email: user.Email}, nil
}

func (s *ProfileService) Update(ctx context.Context, userID uint64, req UpdateProfileReq) (*model.UserProfile, error) {
	fields := map[string]any{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if n := utf8.RuneCountInString(name); n == 0 || n > 50 {
			return nil, pkg.Invalid("display name must be 1 to 50 characters")
		}
		fields["display_name"] = name
	}
	if req.AvatarURL != nil {
		if len(*req.AvatarURL) > 512 {
			return nil, pkg.Invalid("avatar url too long")
		}
		fields["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > 280 {
			return nil, pkg.Invalid("bio must be at most 280 characters")
		}
		fields["bio"] = *req.Bio
	}
	if err := s.repo.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// SetHomeCommunity communityID 为 0 时清空；否则必须是该社区成员
func (s *ProfileService) SetHomeCommunity(ctx context.Context, userID, communityID uint64) (*model.UserProfile, error) {
	var value any
	if communityID != 0 {
		ok, err := s.memberRepo.IsMember(ctx, communityID, userID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkg.Forbidden("join the community before making it your home")
		}
		value = communityID
	}
	if err := s.repo.Update(ctx, userID, map[string]any{"home_community_id": value}); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}
