package service

import (
	"context"
	"time"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Sender func(ctx context.Context, ob *model.ActivityOutbox) error

// OutboxRelayer 从 activity_outbox 读取事件异步投递
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, log *zap.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
		log:       log,
	}
}

// Run outbox启动器，ctx 取消后退出
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.DrainOnce(ctx)
		}
	}
}

// DrainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) DrainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			r.log.Warn("outbox send failed",
				zap.Uint64("id", ob.ID), zap.String("event", ob.EventType),
				zap.Int("retry", ob.Retry+1), zap.Error(err))
			if err := r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				r.log.Error("outbox retry update failed", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Error("outbox success update failed", zap.Uint64("id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// LogSender 未配置 Kafka 时只打日志
func LogSender(log *zap.Logger) Sender {
	return func(ctx context.Context, ob *model.ActivityOutbox) error {
		log.Info("outbox event",
			zap.String("event", ob.EventType),
			zap.Uint64("aggregate_id", ob.AggregateID),
			zap.Uint64("actor_id", ob.ActorID),
			zap.ByteString("payload", ob.Payload))
		return nil
	}
}

// KafkaSender 以聚合 id 为 key，同一团购/社区的事件保持顺序
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.ActivityOutbox) error {
		return p.Publish(ctx, pkg.Event{
			AggregateID: ob.AggregateID,
			Type:        ob.EventType,
			Payload:     ob.Payload,
			OccurredAt:  ob.CreatedAt,
		})
	}
}
