package mysql

import (
	"context"
	"errors"
	"fmt"

	"Kampung_Community/internal/model"

	"gorm.io/gorm"
)

type VoteRepository struct {
	DB *gorm.DB
}

type VoteResult struct {
	Score  int64 `json:"score"`
	MyVote int   `json:"my_vote"`
}

// ScoreRow 对账用
type ScoreRow struct {
	ID    uint64
	Score int64
}

func targetTable(targetType string) (string, error) {
	switch targetType {
	case model.TargetPost:
		return "posts", nil
	case model.TargetComment:
		return "comments", nil
	}
	return "", fmt.Errorf("unknown vote target %q", targetType)
}

// transition 投票状态机：current 为 0 表示尚未投票
// 无票 -> 新票；同向再投 -> 取消；反向 -> 改票
func transition(current, requested int) (next int, delta int64) {
	switch {
	case current == 0:
		return requested, int64(requested)
	case current == requested:
		return 0, int64(-requested)
	default:
		return requested, int64(requested - current)
	}
}

// Vote 在一个事务里完成投票记录和分数列的变更
func (r *VoteRepository) Vote(ctx context.Context, userID uint64, targetType string, targetID uint64, value int) (*VoteResult, error) {
	table, err := targetTable(targetType)
	if err != nil {
		return nil, err
	}
	var result VoteResult
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Table(table).Where("id = ? AND status = ?", targetID, model.StatusNormal).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}

		var v model.Vote
		current := 0
		err := tx.Where("user_id = ? AND target_type = ? AND target_id = ?", userID, targetType, targetID).First(&v).Error
		if err == nil {
			current = v.Value
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		next, delta := transition(current, value)
		switch {
		case current == 0:
			err = tx.Create(&model.Vote{UserID: userID, TargetType: targetType, TargetID: targetID, Value: next}).Error
		case next == 0:
			err = tx.Delete(&model.Vote{}, v.ID).Error
		default:
			err = tx.Model(&model.Vote{}).Where("id = ?", v.ID).Update("value", next).Error
		}
		if err != nil {
			return err
		}

		if err := tx.Table(table).Where("id = ?", targetID).
			UpdateColumn("score", gorm.Expr("score + ?", delta)).Error; err != nil {
			return err
		}
		result.MyVote = next
		return tx.Table(table).Select("score").Where("id = ?", targetID).Row().Scan(&result.Score)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MyVotes 当前用户在一批对象上的投票
func (r *VoteRepository) MyVotes(ctx context.Context, userID uint64, targetType string, ids []uint64) (map[uint64]int, error) {
	out := make(map[uint64]int, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.Vote
	if err := r.DB.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, targetType, ids).
		Find(&list).Error; err != nil {
		return nil, err
	}
	for _, v := range list {
		out[v.TargetID] = v.Value
	}
	return out, nil
}

// GetScore 回源读取分数列
func (r *VoteRepository) GetScore(ctx context.Context, targetType string, targetID uint64) (int64, error) {
	table, err := targetTable(targetType)
	if err != nil {
		return 0, err
	}
	var rows []int64
	if err := r.DB.WithContext(ctx).Table(table).Where("id = ? AND status = ?", targetID, model.StatusNormal).
		Pluck("score", &rows).Error; err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}

// ScoreBatch 对账：按 id 递增批量取当前分数
func (r *VoteRepository) ScoreBatch(ctx context.Context, targetType string, lastID uint64, batchSize int) ([]ScoreRow, error) {
	table, err := targetTable(targetType)
	if err != nil {
		return nil, err
	}
	var list []ScoreRow
	err = r.DB.WithContext(ctx).Table(table).
		Select("id", "score").
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Scan(&list).Error
	return list, err
}

// RealScores 从 votes 表汇总真实分数
func (r *VoteRepository) RealScores(ctx context.Context, targetType string, ids []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []ScoreRow
	if err := r.DB.WithContext(ctx).Model(&model.Vote{}).
		Select("target_id AS id, SUM(value) AS score").
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Group("target_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row.Score
	}
	return out, nil
}

// FixScore 修正分数列
func (r *VoteRepository) FixScore(ctx context.Context, targetType string, id uint64, score int64) error {
	table, err := targetTable(targetType)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Table(table).Where("id = ?", id).UpdateColumn("score", score).Error
}
