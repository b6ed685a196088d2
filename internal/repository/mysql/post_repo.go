package mysql

import (
	"context"
	"time"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
)

type PostRepository struct {
	DB *gorm.DB
}

// Create 写帖子同时写 outbox
func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventPostCreated, post.ID, post.AuthorID, map[string]any{
			"community_id": post.CommunityID,
			"title":        post.Title,
		})
	})
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.Post, error) {
	var post model.Post
	err := r.DB.WithContext(ctx).First(&post, "id = ? AND status = ?", id, model.StatusNormal).Error
	return &post, err
}

// ListByCommunity 基础分页查询
func (r *PostRepository) ListByCommunity(ctx context.Context, communityID uint64, offset, limit int) ([]model.Post, error) {
	var list []model.Post
	err := r.DB.WithContext(ctx).
		Where("community_id = ? AND status = ?", communityID, model.StatusNormal).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// ListByCommunityCursor 基于时间游标的查询：索引 (community_id, created_at)
// lastCreatedAt 为零值表示第一页；否则用 (created_at, id) 作为严格游标
func (r *PostRepository) ListByCommunityCursor(ctx context.Context, communityID, lastID uint64, lastCreatedAt time.Time, limit int) ([]model.Post, error) {
	var list []model.Post
	q := r.DB.WithContext(ctx).Where("community_id = ? AND status = ?", communityID, model.StatusNormal)
	if !lastCreatedAt.IsZero() {
		// 先比时间，再在同一时间点用 id 打破并列
		q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", lastCreatedAt, lastCreatedAt, lastID)
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error
	return list, err
}

// Update 只有作者能修改
func (r *PostRepository) Update(ctx context.Context, id, authorID uint64, title, content string) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND author_id = ? AND status = ?", id, authorID, model.StatusNormal).
		Updates(map[string]any{"title": title, "content": content})
	return res.RowsAffected, res.Error
}

// DeleteWithPermission 带权限的一步软删除：作者或社区管理员(role>=1)方可删除
func (r *PostRepository) DeleteWithPermission(ctx context.Context, postID, operatorID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND status = ?", postID, model.StatusNormal).
		Where(`(author_id = ? OR EXISTS (
			SELECT 1 FROM community_members m
			WHERE m.community_id = posts.community_id AND m.user_id = ? AND m.role >= ?))`,
			operatorID, operatorID, model.MemberRoleAdmin).
		Update("status", model.StatusDeleted)
	return res.RowsAffected, res.Error
}

// Exists 帖子是否存在（含已删除）
func (r *PostRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Post{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
