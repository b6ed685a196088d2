package mysql

import (
	"context"
	"errors"
	"time"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrGroupBuyNotOpen = errors.New("group buy is not open")
	ErrGroupBuyExpired = errors.New("group buy deadline has passed")
)

type GroupBuyRepository struct {
	DB *gorm.DB
}

// JoinResult 参与后的团购状态；Reached 表示本次加入首次达成目标
type JoinResult struct {
	GroupBuy    *model.GroupBuy
	Participant *model.GroupBuyParticipant
	Reached     bool
}

func (r *GroupBuyRepository) Create(ctx context.Context, gb *model.GroupBuy) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(gb).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventGroupBuyCreated, gb.ID, gb.CreatorID, map[string]any{
			"community_id":    gb.CommunityID,
			"title":           gb.Title,
			"target_quantity": gb.TargetQuantity,
			"deadline":        gb.Deadline.UTC().Format(time.RFC3339),
		})
	})
}

func (r *GroupBuyRepository) FindByID(ctx context.Context, id uint64) (*model.GroupBuy, error) {
	var gb model.GroupBuy
	err := r.DB.WithContext(ctx).First(&gb, id).Error
	return &gb, err
}

// ListByCommunity 最新创建的在前，status 为空时不过滤
func (r *GroupBuyRepository) ListByCommunity(ctx context.Context, communityID uint64, status string, offset, limit int) ([]model.GroupBuy, error) {
	var list []model.GroupBuy
	q := r.DB.WithContext(ctx).Where("community_id = ?", communityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&list).Error
	return list, err
}

// joinRetries 并发首次加入撞上唯一索引时重试，第二次会走更新分支
const joinRetries = 2

// Join 参与或修改数量；同一用户重复加入视为更新数量
func (r *GroupBuyRepository) Join(ctx context.Context, groupBuyID, userID uint64, quantity int64, note string, now time.Time) (res *JoinResult, err error) {
	for i := 0; i < joinRetries; i++ {
		res, err = r.join(ctx, groupBuyID, userID, quantity, note, now)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return res, err
		}
	}
	return nil, err
}

func (r *GroupBuyRepository) join(ctx context.Context, groupBuyID, userID uint64, quantity int64, note string, now time.Time) (*JoinResult, error) {
	var result JoinResult
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 锁住团购行，同一团购的加入串行执行
		var gb model.GroupBuy
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&gb, groupBuyID).Error; err != nil {
			return err
		}
		if gb.Status != model.GroupBuyOpen {
			return ErrGroupBuyNotOpen
		}
		if !now.Before(gb.Deadline) {
			return ErrGroupBuyExpired
		}

		var p model.GroupBuyParticipant
		var qtyDelta, countDelta int64
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("group_buy_id = ? AND user_id = ?", groupBuyID, userID).First(&p).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			p = model.GroupBuyParticipant{GroupBuyID: groupBuyID, UserID: userID, Quantity: quantity, Note: note}
			if err := tx.Create(&p).Error; err != nil {
				return err
			}
			qtyDelta, countDelta = quantity, 1
		case err != nil:
			return err
		default:
			qtyDelta = quantity - p.Quantity
			p.Quantity, p.Note = quantity, note
			if err := tx.Model(&model.GroupBuyParticipant{}).Where("id = ?", p.ID).
				Updates(map[string]any{"quantity": quantity, "note": note}).Error; err != nil {
				return err
			}
		}

		if err := r.adjustCounts(tx, groupBuyID, qtyDelta, countDelta); err != nil {
			return err
		}
		gb = model.GroupBuy{}
		if err := tx.First(&gb, groupBuyID).Error; err != nil {
			return err
		}

		if gb.ReachedAt == nil && gb.CurrentQuantity >= gb.TargetQuantity {
			reachedAt := now
			if err := tx.Model(&model.GroupBuy{}).Where("id = ? AND reached_at IS NULL", gb.ID).
				Update("reached_at", reachedAt).Error; err != nil {
				return err
			}
			gb.ReachedAt = &reachedAt
			result.Reached = true
			if err := insertOutbox(tx, model.EventGroupBuyTargetReached, gb.ID, userID, map[string]any{
				"community_id":     gb.CommunityID,
				"current_quantity": gb.CurrentQuantity,
				"target_quantity":  gb.TargetQuantity,
			}); err != nil {
				return err
			}
		}

		result.GroupBuy = &gb
		result.Participant = &p
		return insertOutbox(tx, model.EventGroupBuyJoined, gb.ID, userID, map[string]any{
			"quantity": quantity,
			"delta":    qtyDelta,
		})
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Leave 退出团购，返回是否真的删除了记录
func (r *GroupBuyRepository) Leave(ctx context.Context, groupBuyID, userID uint64) (bool, error) {
	var left bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.GroupBuyParticipant
		if err := tx.Where("group_buy_id = ? AND user_id = ?", groupBuyID, userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Delete(&model.GroupBuyParticipant{}, p.ID).Error; err != nil {
			return err
		}
		left = true
		return r.adjustCounts(tx, groupBuyID, -p.Quantity, -1)
	})
	return left, err
}

// adjustCounts 调整数量和人数，不会减成负数
func (r *GroupBuyRepository) adjustCounts(tx *gorm.DB, groupBuyID uint64, qtyDelta, countDelta int64) error {
	return tx.Model(&model.GroupBuy{}).Where("id = ?", groupBuyID).UpdateColumns(map[string]any{
		"current_quantity":  gorm.Expr("CASE WHEN current_quantity + ? < 0 THEN 0 ELSE current_quantity + ? END", qtyDelta, qtyDelta),
		"participant_count": gorm.Expr("CASE WHEN participant_count + ? < 0 THEN 0 ELSE participant_count + ? END", countDelta, countDelta),
	}).Error
}

// Close 发起人手动结束
func (r *GroupBuyRepository) Close(ctx context.Context, groupBuyID, creatorID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.GroupBuy{}).
		Where("id = ? AND creator_id = ? AND status = ?", groupBuyID, creatorID, model.GroupBuyOpen).
		Update("status", model.GroupBuyClosed)
	return res.RowsAffected, res.Error
}

// ExpireDue 截止时间已过的 open 团购标记为 expired
func (r *GroupBuyRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.GroupBuy{}).
		Where("status = ? AND deadline <= ?", model.GroupBuyOpen, now).
		Update("status", model.GroupBuyExpired)
	return res.RowsAffected, res.Error
}

func (r *GroupBuyRepository) FindParticipant(ctx context.Context, groupBuyID, userID uint64) (*model.GroupBuyParticipant, error) {
	var p model.GroupBuyParticipant
	err := r.DB.WithContext(ctx).Where("group_buy_id = ? AND user_id = ?", groupBuyID, userID).First(&p).Error
	return &p, err
}

// Participants 参与者列表（带昵称），先加入的在前
func (r *GroupBuyRepository) Participants(ctx context.Context, groupBuyID uint64) ([]model.ParticipantView, error) {
	var list []model.ParticipantView
	err := r.DB.WithContext(ctx).
		Table("group_buy_participants AS gp").
		Select("gp.user_id, COALESCE(p.display_name, '') AS display_name, gp.quantity, gp.note, gp.created_at AS joined_at").
		Joins("LEFT JOIN user_profiles AS p ON p.user_id = gp.user_id").
		Where("gp.group_buy_id = ?", groupBuyID).
		Order("gp.created_at ASC, gp.id ASC").
		Scan(&list).Error
	return list, err
}

func (r *GroupBuyRepository) CreateComment(ctx context.Context, c *model.GroupBuyComment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GroupBuyRepository) ListComments(ctx context.Context, groupBuyID uint64, offset, limit int) ([]model.GroupBuyComment, error) {
	var list []model.GroupBuyComment
	err := r.DB.WithContext(ctx).
		Where("group_buy_id = ?", groupBuyID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, err
}

// DeleteComment 评论作者或团购发起人可删除
func (r *GroupBuyRepository) DeleteComment(ctx context.Context, groupBuyID, commentID, operatorID uint64) (int64, error) {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND group_buy_id = ?", commentID, groupBuyID).
		Where(`(author_id = ? OR EXISTS (
			SELECT 1 FROM group_buys g WHERE g.id = group_buy_comments.group_buy_id AND g.creator_id = ?))`,
			operatorID, operatorID).
		Delete(&model.GroupBuyComment{})
	return res.RowsAffected, res.Error
}

func (r *GroupBuyRepository) FindComment(ctx context.Context, groupBuyID, id uint64) (*model.GroupBuyComment, error) {
	var c model.GroupBuyComment
	err := r.DB.WithContext(ctx).First(&c, "id = ? AND group_buy_id = ?", id, groupBuyID).Error
	return &c, err
}
