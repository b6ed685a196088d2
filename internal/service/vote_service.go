package service

import (
	"context"
	"time"

	"Kampung_Community/internal/model"
	"Kampung_Community/internal/pkg"
	"Kampung_Community/internal/repository/mysql"
	"Kampung_Community/internal/repository/redis"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type VoteService struct {
	repo  *mysql.VoteRepository
	cache *redis.ScoreCacheRepository
	lock  *redis.DistLock
	log   *zap.Logger
	// 延迟二删的等待时间，0 表示不做
	secondDelete time.Duration
	backoff      time.Duration
}

func NewVoteService(db *gorm.DB, rdb *goredis.Client, log *zap.Logger) *VoteService {
	return &VoteService{
		repo:         &mysql.VoteRepository{DB: db},
		cache:        redis.NewScoreCacheRepository(rdb),
		lock:         &redis.DistLock{RDB: rdb},
		log:          log,
		secondDelete: 500 * time.Millisecond,
		backoff:      50 * time.Millisecond,
	}
}

func validTarget(targetType string) error {
	if targetType != model.TargetPost && targetType != model.TargetComment {
		return pkg.Invalid("target type must be post or comment")
	}
	return nil
}

// Vote 先写库，提交后删除分数缓存，交给读侧加锁回填
func (s *VoteService) Vote(ctx context.Context, userID uint64, targetType string, targetID uint64, value int) (*mysql.VoteResult, error) {
	if err := validTarget(targetType); err != nil {
		return nil, err
	}
	if value != 1 && value != -1 {
		return nil, pkg.Invalid("value must be 1 or -1")
	}
	if targetID == 0 {
		return nil, pkg.Invalid("invalid target id")
	}

	res, err := s.repo.Vote(ctx, userID, targetType, targetID, value)
	if err != nil {
		return nil, pkg.NotFound(err, targetType)
	}
	if err := s.cache.DeleteScore(ctx, targetType, targetID, s.secondDelete); err != nil {
		s.log.Warn("delete score cache failed", zap.String("type", targetType), zap.Uint64("id", targetID), zap.Error(err))
	}
	return res, nil
}

func (s *VoteService) MyVotes(ctx context.Context, userID uint64, targetType string, ids []uint64) (map[uint64]int, error) {
	if err := validTarget(targetType); err != nil {
		return nil, err
	}
	if len(ids) > 100 {
		return nil, pkg.Invalid("at most 100 ids per request")
	}
	return s.repo.MyVotes(ctx, userID, targetType, ids)
}

// GetScoreWithLock 缓存未命中时只让一个请求回源
func (s *VoteService) GetScoreWithLock(ctx context.Context, targetType string, targetID uint64) (int64, error) {
	if err := validTarget(targetType); err != nil {
		return 0, err
	}
	// 第一次从缓存读
	if v, ok, err := s.cache.GetScore(ctx, targetType, targetID); err == nil && ok {
		return v, nil
	}
	token := uuid.NewString()
	got, _ := s.lock.Acquire(ctx, targetType, targetID, token)

	if got {
		defer func() {
			if err := s.lock.Release(ctx, targetType, targetID, token); err != nil {
				s.log.Warn("release score lock failed", zap.Error(err))
			}
		}()

		// 第二次检查
		if v, ok, err := s.cache.GetScore(ctx, targetType, targetID); err == nil && ok {
			return v, nil
		}
		v, err := s.repo.GetScore(ctx, targetType, targetID)
		if err != nil {
			return 0, pkg.NotFound(err, targetType)
		}
		_ = s.cache.SetScore(ctx, targetType, targetID, v)
		return v, nil
	}

	// 没拿到锁，短暂退避后再读一次缓存，避免全体打DB
	time.Sleep(s.backoff)
	if v, ok, err := s.cache.GetScore(ctx, targetType, targetID); err == nil && ok {
		return v, nil
	}
	v, err := s.repo.GetScore(ctx, targetType, targetID)
	return v, pkg.NotFound(err, targetType)
}

// ScoreReconciler 用 votes 表的汇总值修正 posts/comments 上的分数列
type ScoreReconciler struct {
	repo      *mysql.VoteRepository
	cache     *redis.ScoreCacheRepository
	batchSize int
	log       *zap.Logger
}

func NewScoreReconciler(db *gorm.DB, rdb *goredis.Client, log *zap.Logger) *ScoreReconciler {
	return &ScoreReconciler{
		repo:      &mysql.VoteRepository{DB: db},
		cache:     redis.NewScoreCacheRepository(rdb),
		batchSize: 500,
		log:       log,
	}
}

// ReconcileOnce 返回修正的行数
func (r *ScoreReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	fixed := 0
	for _, targetType := range []string{model.TargetPost, model.TargetComment} {
		n, err := r.reconcileType(ctx, targetType)
		fixed += n
		if err != nil {
			return fixed, errors.Wrapf(err, "reconcile %s scores", targetType)
		}
	}
	return fixed, nil
}

func (r *ScoreReconciler) reconcileType(ctx context.Context, targetType string) (int, error) {
	fixed := 0
	var lastID uint64
	for {
		rows, err := r.repo.ScoreBatch(ctx, targetType, lastID, r.batchSize)
		if err != nil {
			return fixed, err
		}
		if len(rows) == 0 {
			return fixed, nil
		}
		ids := make([]uint64, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		sums, err := r.repo.RealScores(ctx, targetType, ids)
		if err != nil {
			return fixed, err
		}
		for _, row := range rows {
			if want := sums[row.ID]; want != row.Score {
				if err := r.repo.FixScore(ctx, targetType, row.ID, want); err != nil {
					return fixed, err
				}
				_ = r.cache.DeleteScore(ctx, targetType, row.ID)
				r.log.Info("score drift fixed",
					zap.String("type", targetType), zap.Uint64("id", row.ID),
					zap.Int64("was", row.Score), zap.Int64("now", want))
				fixed++
			}
		}
		lastID = rows[len(rows)-1].ID
		if len(rows) < r.batchSize {
			return fixed, nil
		}
	}
}
