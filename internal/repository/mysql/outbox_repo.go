package mysql

import (
	"context"
	"encoding/json"
	"time"

	"Kampung_Community/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxOutboxRetry 超过后不再重投，留给人工排查
const MaxOutboxRetry = 5

type OutboxRepository struct {
	DB *gorm.DB
}

// insertOutbox 在业务事务内写入事件
func insertOutbox(tx *gorm.DB, event string, aggregateID, actorID uint64, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	data["event_time"] = time.Now().UTC().Format(time.RFC3339Nano)
	data["actor_id"] = actorID
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return tx.Create(&model.ActivityOutbox{
		EventType:   event,
		AggregateID: aggregateID,
		ActorID:     actorID,
		Payload:     datatypes.JSON(payload),
		Status:      model.OutboxPending,
	}).Error
}

// List 取待投递事件：pending 以及未超过重试上限的 failed
func (r *OutboxRepository) List(ctx context.Context, batchSize int) ([]model.ActivityOutbox, error) {
	var list []model.ActivityOutbox
	if err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, MaxOutboxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// RetryUpdate 投递失败，记录重试次数
func (r *OutboxRepository) RetryUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.ActivityOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// SuccessUpdate 投递成功
func (r *OutboxRepository) SuccessUpdate(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.ActivityOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}
