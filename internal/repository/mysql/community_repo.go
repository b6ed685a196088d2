package mysql

import (
	"context"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommunityRepository struct {
	DB *gorm.DB
}

// Ensure 按 slug 幂等创建社区，返回库中的那一行
func (r *CommunityRepository) Ensure(ctx context.Context, c *model.Community) (*model.Community, error) {
	if err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(c).Error; err != nil {
		return nil, err
	}
	return r.FindBySlug(ctx, c.Slug)
}

func (r *CommunityRepository) FindByID(ctx context.Context, id uint64) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).First(&community, id).Error
	return &community, err
}

func (r *CommunityRepository) FindBySlug(ctx context.Context, slug string) (*model.Community, error) {
	var community model.Community
	err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&community).Error
	return &community, err
}

// List 按成员数倒序，可按区域过滤
func (r *CommunityRepository) List(ctx context.Context, region string, offset, limit int) ([]model.Community, error) {
	var list []model.Community
	q := r.DB.WithContext(ctx).Model(&model.Community{})
	if region != "" {
		q = q.Where("region = ?", region)
	}
	err := q.Order("member_count DESC, id ASC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// ListBySector 同一邮编前缀下的社区
func (r *CommunityRepository) ListBySector(ctx context.Context, sector string) ([]model.Community, error) {
	var list []model.Community
	err := r.DB.WithContext(ctx).Where("sector = ?", sector).Order("member_count DESC, id ASC").Find(&list).Error
	return list, err
}
