package mysql

import (
	"context"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
)

type CommentRepository struct {
	DB *gorm.DB
}

// Create 写评论并累加帖子评论数
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.Comment, error) {
	var c model.Comment
	err := r.DB.WithContext(ctx).First(&c, "id = ? AND status = ?", id, model.StatusNormal).Error
	return &c, err
}

// ListByPost 按时间正序
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64, offset, limit int) ([]model.Comment, error) {
	var list []model.Comment
	err := r.DB.WithContext(ctx).
		Where("post_id = ? AND status = ?", postID, model.StatusNormal).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// DeleteWithPermission 作者或帖子所在社区的管理员可删除；成功时评论数-1
// 评论不属于 postID 时按不存在处理
func (r *CommentRepository) DeleteWithPermission(ctx context.Context, postID, commentID, operatorID uint64) (int64, error) {
	var affected int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Comment
		if err := tx.First(&c, "id = ? AND post_id = ?", commentID, postID).Error; err != nil {
			return err
		}
		res := tx.Model(&model.Comment{}).
			Where("id = ? AND status = ?", commentID, model.StatusNormal).
			Where(`(author_id = ? OR EXISTS (
				SELECT 1 FROM posts p JOIN community_members m ON m.community_id = p.community_id
				WHERE p.id = comments.post_id AND m.user_id = ? AND m.role >= ?))`,
				operatorID, operatorID, model.MemberRoleAdmin).
			Update("status", model.StatusDeleted)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		if affected == 0 {
			return nil
		}
		return tx.Model(&model.Post{}).Where("id = ?", c.PostID).
			UpdateColumn("comment_count", gorm.Expr("CASE WHEN comment_count > 0 THEN comment_count - 1 ELSE 0 END")).Error
	})
	return affected, err
}
