package service

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	ExpirySpec    = "@every 1m"
	ReconcileSpec = "@every 10m"
)

// Scheduler 周期维护任务：团购过期、分数对账
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func NewScheduler(groupBuys *GroupBuyService, reconciler *ScoreReconciler, log *zap.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, log: log}

	if _, err := c.AddFunc(ExpirySpec, func() {
		n, err := groupBuys.ExpireDue(context.Background())
		if err != nil {
			log.Error("expire group buys failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Info("group buys expired", zap.Int64("count", n))
		}
	}); err != nil {
		return nil, err
	}

	if _, err := c.AddFunc(ReconcileSpec, func() {
		n, err := reconciler.ReconcileOnce(context.Background())
		if err != nil {
			log.Error("score reconcile failed", zap.Error(err))
		}
		if n > 0 {
			log.Info("score reconcile done", zap.Int("fixed", n))
		}
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Add 追加其他周期任务
func (s *Scheduler) Add(spec string, job func()) error {
	_, err := s.cron.AddFunc(spec, job)
	return err
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop 等待正在执行的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
