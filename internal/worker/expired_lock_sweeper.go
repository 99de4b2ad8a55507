package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
)

// LockSweeper は期限切れの座席ロックを回収するインターフェース
type LockSweeper interface {
	ReleaseExpiredLocks(ctx context.Context, limit int) (int, error)
}

// PaymentExpirer は放置された決済試行を期限切れにするインターフェース
type PaymentExpirer interface {
	ExpireStalePayments(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// ExpiredLockSweeper は期限切れロックと放置決済を定期的に回収するワーカー
type ExpiredLockSweeper struct {
	lockService    LockSweeper
	paymentService PaymentExpirer
	interval       time.Duration
	pendingExpiry  time.Duration
	batchLimit     int
	stopCh         chan struct{}
	doneCh         chan struct{}
}

// NewExpiredLockSweeper は新しいスイーパーを作成
func NewExpiredLockSweeper(
	ls LockSweeper,
	ps PaymentExpirer,
	interval time.Duration,
	pendingExpiry time.Duration,
	batchLimit int,
) *ExpiredLockSweeper {
	if batchLimit <= 0 {
		batchLimit = 100
	}
	return &ExpiredLockSweeper{
		lockService:    ls,
		paymentService: ps,
		interval:       interval,
		pendingExpiry:  pendingExpiry,
		batchLimit:     batchLimit,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はスイーパーを開始
func (s *ExpiredLockSweeper) Start(ctx context.Context) {
	logger.Info("期限切れロックスイーパー開始",
		zap.Duration("interval", s.interval),
		zap.Duration("pending_expiry", s.pendingExpiry),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れロックスイーパー停止（コンテキストキャンセル）")
			return
		case <-s.stopCh:
			logger.Info("期限切れロックスイーパー停止（シグナル受信）")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Stop はスイーパーを停止
func (s *ExpiredLockSweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// sweep は期限切れロックの回収と放置決済の期限切れ処理を行う
func (s *ExpiredLockSweeper) sweep(ctx context.Context) {
	log := logger.Get()
	log.Debug("期限切れロックのスイープ開始")

	released, err := s.lockService.ReleaseExpiredLocks(ctx, s.batchLimit)
	if err != nil {
		log.Error("期限切れロックのスイープ失敗", zap.Error(err))
	} else if released > 0 {
		log.Info("期限切れロックを回収", zap.Int("count", released))
	} else {
		log.Debug("期限切れロックなし")
	}

	if s.paymentService == nil {
		return
	}
	expired, err := s.paymentService.ExpireStalePayments(ctx, s.pendingExpiry, s.batchLimit)
	if err != nil {
		log.Error("放置決済の期限切れ処理失敗", zap.Error(err))
	} else if expired > 0 {
		log.Info("放置決済を期限切れに変更", zap.Int("count", expired))
	}
}
