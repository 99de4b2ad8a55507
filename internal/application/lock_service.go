package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
	redislock "github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
)

// LockService は座席ロックの取得・解放・延長と期限切れスイープを担う
type LockService struct {
	txManager    transaction.Manager
	lockRepo     seatlock.Repository
	seatRepo     seat.Repository
	scheduleRepo schedule.Repository
	lockManager  redislock.LockManagerInterface
	cache        redislock.AvailabilityCacheInterface
	ttl          time.Duration
}

// NewLockService は座席ロックサービスを作成する
func NewLockService(
	txManager transaction.Manager,
	lockRepo seatlock.Repository,
	seatRepo seat.Repository,
	scheduleRepo schedule.Repository,
	lockManager redislock.LockManagerInterface,
	cache redislock.AvailabilityCacheInterface,
	ttl time.Duration,
) *LockService {
	if ttl <= 0 {
		ttl = seatlock.DefaultTTL
	}
	return &LockService{
		txManager:    txManager,
		lockRepo:     lockRepo,
		seatRepo:     seatRepo,
		scheduleRepo: scheduleRepo,
		lockManager:  lockManager,
		cache:        cache,
		ttl:          ttl,
	}
}

// AcquireLockInput は座席ロック取得の入力
type AcquireLockInput struct {
	ScheduleID string
	SeatIDs    []string
	OwnerToken string
}

// AcquireLock は指定座席を一括で仮押さえする
// 1席でも確保できない場合は1席もロックせず、確保できなかった座席IDを
// seatlock.ConflictError で報告する
func (s *LockService) AcquireLock(ctx context.Context, input AcquireLockInput) (*seatlock.SeatLock, error) {
	lock := seatlock.NewSeatLock(input.ScheduleID, input.OwnerToken, input.SeatIDs, s.ttl)
	if err := lock.Validate(); err != nil {
		return nil, err
	}

	// 同一座席集合への同時取得を直列化する（座席IDをソートしてデッドロック防止）
	lockKey := buildSeatLockKey(input.SeatIDs)
	if s.lockManager != nil {
		dlock, err := s.lockManager.AcquireLockWithRetry(ctx, lockKey, 10*time.Second, 3, 100*time.Millisecond)
		if err != nil {
			if errors.Is(err, redislock.ErrLockNotAcquired) {
				metrics.Get().SeatLocksTotal.WithLabelValues("conflict").Inc()
				return nil, seatlock.NewConflictError(input.SeatIDs)
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer dlock.Release(ctx)
	}

	sched, err := s.scheduleRepo.GetByID(ctx, input.ScheduleID)
	if err != nil {
		return nil, err
	}
	if !sched.IsBookingOpen() {
		return nil, schedule.ErrScheduleNotOpen
	}

	// 実在しない座席IDは競合（409）ではなくエラーとして扱う
	existing, err := s.seatRepo.GetExistingIDs(ctx, input.ScheduleID, input.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("座席存在確認に失敗: %w", err)
	}
	if len(existing) != len(input.SeatIDs) {
		return nil, seat.ErrSeatNotFound
	}

	// 先に競合を検査して、確保できない座席IDを報告できるようにする
	unavailable, err := s.seatRepo.GetUnavailableIDs(ctx, input.ScheduleID, input.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("座席状態の確認に失敗: %w", err)
	}
	if len(unavailable) > 0 {
		metrics.Get().SeatLocksTotal.WithLabelValues("conflict").Inc()
		return nil, seatlock.NewConflictError(unavailable)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockRepo.Create(ctx, tx, lock); err != nil {
		return nil, err
	}
	if err := s.seatRepo.LockSeats(ctx, tx, input.ScheduleID, input.SeatIDs, lock.ID); err != nil {
		// 検査とロックの間に他の取得が割り込んだ場合
		if errors.Is(err, seat.ErrSeatNotAvailable) {
			metrics.Get().SeatLocksTotal.WithLabelValues("conflict").Inc()
			unavailable, qerr := s.seatRepo.GetUnavailableIDs(ctx, input.ScheduleID, input.SeatIDs)
			if qerr != nil || len(unavailable) == 0 {
				unavailable = input.SeatIDs
			}
			return nil, seatlock.NewConflictError(unavailable)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	metrics.Get().SeatLocksTotal.WithLabelValues("acquired").Inc()
	metrics.Get().ActiveSeatLocks.Inc()
	s.invalidateCache(ctx, input.ScheduleID)

	logger.Info("座席ロックを取得しました",
		zap.String("lock_id", lock.ID),
		zap.String("schedule_id", input.ScheduleID),
		zap.Int("seat_count", len(input.SeatIDs)))
	return lock, nil
}

// GetLock はロックを取得する（所有者確認付き）
func (s *LockService) GetLock(ctx context.Context, lockID, ownerToken string) (*seatlock.SeatLock, error) {
	lock, err := s.lockRepo.GetByID(ctx, lockID)
	if err != nil {
		return nil, err
	}
	if lock.OwnerToken != ownerToken {
		return nil, seatlock.ErrNotLockOwner
	}
	return lock, nil
}

// ReleaseLock はロックを明示的に解放し、座席を空席に戻す
// 既に解放・期限切れ・昇格済みの場合は何もせず成功を返す（冪等）
func (s *LockService) ReleaseLock(ctx context.Context, lockID, ownerToken string) error {
	lock, err := s.GetLock(ctx, lockID, ownerToken)
	if err != nil {
		return err
	}
	if !lock.IsHeld() {
		return nil
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	updated, err := s.lockRepo.UpdateStatus(ctx, tx, lockID, seatlock.StatusHeld, seatlock.StatusReleased)
	if err != nil {
		return err
	}
	if !updated {
		// スイープ等と競合した場合はそちらの結果を尊重する
		return nil
	}
	if err := s.seatRepo.ReleaseSeats(ctx, tx, lock.SeatIDs, lockID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	metrics.Get().ActiveSeatLocks.Dec()
	s.invalidateCache(ctx, lock.ScheduleID)
	logger.Info("座席ロックを解放しました", zap.String("lock_id", lockID))
	return nil
}

// ExtendLock はロックの有効期限を延長する
func (s *LockService) ExtendLock(ctx context.Context, lockID, ownerToken string, additional time.Duration) (*seatlock.SeatLock, error) {
	lock, err := s.GetLock(ctx, lockID, ownerToken)
	if err != nil {
		return nil, err
	}
	if err := lock.Extend(additional); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.lockRepo.UpdateExpiresAt(ctx, tx, lock); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return lock, nil
}

// ReleaseExpiredLocks は期限切れのロックを回収し、座席を空席に戻す
// 回収したロック数を返す。決済による昇格と競合した場合は昇格を優先する
func (s *LockService) ReleaseExpiredLocks(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	expired, err := s.lockRepo.GetExpiredHeld(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("期限切れロック取得に失敗: %w", err)
	}

	released := 0
	for _, lock := range expired {
		ok, err := s.expireLock(ctx, lock)
		if err != nil {
			logger.Error("期限切れロックの回収に失敗しました",
				zap.String("lock_id", lock.ID), zap.Error(err))
			continue
		}
		if ok {
			released++
		}
	}
	if released > 0 {
		logger.Info("期限切れロックを回収しました", zap.Int("count", released))
	}
	return released, nil
}

func (s *LockService) expireLock(ctx context.Context, lock *seatlock.SeatLock) (bool, error) {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 行単位CASで昇格との競合を決着する
	updated, err := s.lockRepo.UpdateStatus(ctx, tx, lock.ID, seatlock.StatusHeld, seatlock.StatusExpired)
	if err != nil {
		return false, err
	}
	if !updated {
		// 取得後に昇格または解放された。回収対象ではない
		return false, nil
	}
	if err := s.seatRepo.ReleaseSeats(ctx, tx, lock.SeatIDs, lock.ID); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("コミットに失敗: %w", err)
	}

	metrics.Get().ActiveSeatLocks.Dec()
	s.invalidateCache(ctx, lock.ScheduleID)
	return true, nil
}

func (s *LockService) invalidateCache(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleID); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗しました",
			zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}

// buildSeatLockKey は座席IDからロックキーを生成（ソートしてデッドロック防止）
func buildSeatLockKey(seatIDs []string) string {
	sorted := make([]string, len(seatIDs))
	copy(sorted, seatIDs)
	sort.Strings(sorted)
	return "seats:" + strings.Join(sorted, ",")
}
