package mysql

import (
	"context"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	DB *gorm.DB
}

func (r *ProfileRepository) FindByUserID(ctx context.Context, userID uint64) (*model.UserProfile, error) {
	var p model.UserProfile
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	return &p, err
}

// FindByUserIDs 批量取昵称，列表拼装时使用
func (r *ProfileRepository) FindByUserIDs(ctx context.Context, ids []uint64) (map[uint64]model.UserProfile, error) {
	out := make(map[uint64]model.UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.UserProfile
	if err := r.DB.WithContext(ctx).Where("user_id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.UserID] = p
	}
	return out, nil
}

// Update 只更新传入的字段
func (r *ProfileRepository) Update(ctx context.Context, userID uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&model.UserProfile{}).Where("user_id = ?", userID).Updates(fields).Error
}
