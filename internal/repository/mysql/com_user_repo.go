package mysql

import (
	"context"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityMemberRepository struct {
	DB *gorm.DB
}

// Join 幂等加入：已是成员返回 joined=false；社区还没有管理员时第一个加入者成为管理员
func (r *CommunityMemberRepository) Join(ctx context.Context, communityID, userID uint64) (joined bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 先锁社区行，避免两个首批加入者同时看到 0 个管理员
		var c model.Community
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&c, communityID).Error; err != nil {
			return err
		}
		var admins int64
		if err := tx.Model(&model.CommunityMember{}).
			Where("community_id = ? AND role = ?", communityID, model.MemberRoleAdmin).
			Count(&admins).Error; err != nil {
			return err
		}
		role := model.MemberRoleMember
		if admins == 0 {
			role = model.MemberRoleAdmin
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&model.CommunityMember{
			CommunityID: communityID,
			UserID:      userID,
			Role:        role,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		joined = true

		if err := tx.Model(&model.Community{}).Where("id = ?", communityID).
			UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventCommunityJoined, communityID, userID, map[string]any{
			"community_id": communityID,
			"role":         role,
		})
	})
	return joined, err
}

// Leave 幂等退出，计数不减到负数
func (r *CommunityMemberRepository) Leave(ctx context.Context, communityID, userID uint64) (left bool, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("community_id = ? AND user_id = ?", communityID, userID).
			Delete(&model.CommunityMember{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		left = true
		return tx.Model(&model.Community{}).Where("id = ?", communityID).
			UpdateColumn("member_count", gorm.Expr("CASE WHEN member_count > 0 THEN member_count - 1 ELSE 0 END")).Error
	})
	return left, err
}

func (r *CommunityMemberRepository) IsMember(ctx context.Context, communityID, userID uint64) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityMember{}).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		Count(&count).Error
	return count > 0, err
}

// Find 取成员记录（含角色）
func (r *CommunityMemberRepository) Find(ctx context.Context, communityID, userID uint64) (*model.CommunityMember, error) {
	var m model.CommunityMember
	err := r.DB.WithContext(ctx).Where("community_id = ? AND user_id = ?", communityID, userID).First(&m).Error
	return &m, err
}

// ListMembers 成员列表，按加入时间
func (r *CommunityMemberRepository) ListMembers(ctx context.Context, communityID uint64, offset, limit int) ([]model.MemberView, error) {
	var list []model.MemberView
	err := r.DB.WithContext(ctx).
		Table("community_members AS m").
		Select("m.user_id, m.role, COALESCE(p.display_name, '') AS display_name, COALESCE(p.avatar_url, '') AS avatar_url, m.created_at AS joined_at").
		Joins("LEFT JOIN user_profiles AS p ON p.user_id = m.user_id").
		Where("m.community_id = ?", communityID).
		Order("m.created_at ASC, m.id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&list).Error
	return list, err
}

// ListCommunitiesOfUser 用户加入的社区
func (r *CommunityMemberRepository) ListCommunitiesOfUser(ctx context.Context, userID uint64) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).
		Joins("JOIN community_members AS m ON m.community_id = communities.id").
		Where("m.user_id = ?", userID).
		Order("m.created_at DESC").
		Find(&list).Error
	return list, err
}
