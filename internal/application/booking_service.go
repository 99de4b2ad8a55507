package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/booking"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/gateway"
	redislock "github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
)

// BookingService は決済と予約確定のオーケストレーションを担う
type BookingService struct {
	txManager    transaction.Manager
	lockRepo     seatlock.Repository
	seatRepo     seat.Repository
	paymentRepo  payment.Repository
	bookingRepo  booking.Repository
	gateways     gateway.SelectorInterface
	cache        redislock.AvailabilityCacheInterface
	pollInterval time.Duration
}

// NewBookingService は予約サービスを作成する
func NewBookingService(
	txManager transaction.Manager,
	lockRepo seatlock.Repository,
	seatRepo seat.Repository,
	paymentRepo payment.Repository,
	bookingRepo booking.Repository,
	gateways gateway.SelectorInterface,
	cache redislock.AvailabilityCacheInterface,
	pollInterval time.Duration,
) *BookingService {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &BookingService{
		txManager:    txManager,
		lockRepo:     lockRepo,
		seatRepo:     seatRepo,
		paymentRepo:  paymentRepo,
		bookingRepo:  bookingRepo,
		gateways:     gateways,
		cache:        cache,
		pollInterval: pollInterval,
	}
}

// InitiatePaymentInput は決済開始の入力
type InitiatePaymentInput struct {
	LockID         string
	OwnerToken     string
	Method         payment.Method
	PassengerName  string
	PassengerPhone string
}

// InitiatePayment は保持中のロックに対して決済を開始する
// ゲートウェイに決済を作成し、pending 状態の決済試行を記録する
func (s *BookingService) InitiatePayment(ctx context.Context, input InitiatePaymentInput) (*payment.Attempt, error) {
	lock, err := s.lockRepo.GetByID(ctx, input.LockID)
	if err != nil {
		return nil, err
	}
	if lock.OwnerToken != input.OwnerToken {
		return nil, seatlock.ErrNotLockOwner
	}
	if !lock.IsHeld() {
		return nil, seatlock.ErrLockNotHeld
	}
	if lock.IsExpired() {
		return nil, seatlock.ErrLockExpired
	}

	amount, err := s.totalAmount(ctx, lock)
	if err != nil {
		return nil, err
	}

	transactionID := uuid.New().String()
	attempt := payment.NewAttempt(transactionID, lock.ID, amount, input.Method, input.PassengerName, input.PassengerPhone)
	if err := attempt.Validate(); err != nil {
		return nil, err
	}

	gw := s.gateways.ForMethod(input.Method)
	result, err := gw.CreatePayment(ctx, amount, map[string]string{
		"transaction_id": transactionID,
		"lock_id":        lock.ID,
		"schedule_id":    lock.ScheduleID,
	})
	if err != nil {
		return nil, err
	}
	attempt.GatewayPaymentID = &result.GatewayPaymentID
	if result.RedirectURL != "" {
		attempt.RedirectURL = &result.RedirectURL
	}

	if err := s.paymentRepo.Create(ctx, attempt); err != nil {
		return nil, err
	}

	logger.Info("決済を開始しました",
		zap.String("transaction_id", transactionID),
		zap.String("lock_id", lock.ID),
		zap.String("method", string(input.Method)),
		zap.Int("amount", amount))
	return attempt, nil
}

// ConfirmPaymentInput は決済確定の入力
type ConfirmPaymentInput struct {
	TransactionID string
	// ProviderRef は利用者の決済完了後にプロバイダから渡される参照
	ProviderRef string
}

// ConfirmPayment はゲートウェイで決済を実行し、成功時に予約を確定する
// 同じトランザクションIDで複数回呼んでも安全で、確定済みの場合は既存の予約を返す
func (s *BookingService) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*booking.Booking, error) {
	attempt, err := s.paymentRepo.GetByTransactionID(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	// 冪等性: 既に確定済みの場合は初回と同じ結果を返す
	if !attempt.IsPending() {
		return s.resolvedResult(ctx, attempt)
	}

	if attempt.GatewayPaymentID == nil {
		return nil, payment.ErrPaymentNotFound
	}
	gw := s.gateways.ForMethod(attempt.Method)
	status, err := gw.ExecutePayment(ctx, *attempt.GatewayPaymentID, input.ProviderRef)
	if err != nil {
		// 一時障害では決済試行を pending のまま残し、リトライを可能にする
		return nil, err
	}

	switch status {
	case payment.GatewayPending:
		return nil, payment.ErrPaymentPending
	case payment.GatewayFailed:
		if err := s.resolveFailed(ctx, attempt); err != nil {
			return nil, err
		}
		metrics.Get().BookingsTotal.WithLabelValues("payment_failed").Inc()
		return nil, payment.ErrPaymentFailed
	}

	return s.promoteToBooking(ctx, attempt)
}

// resolveFailed は決済失敗を確定し、ロックを解放して座席を空席に戻す
// 失敗した決済のロックを保持し続ける理由はなく、座席は即座に再販可能にする
func (s *BookingService) resolveFailed(ctx context.Context, attempt *payment.Attempt) error {
	lock, err := s.lockRepo.GetByID(ctx, attempt.LockID)
	if err != nil {
		return err
	}
	if err := attempt.MarkFailed(); err != nil {
		return err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.paymentRepo.Update(ctx, tx, attempt); err != nil {
		return err
	}
	// スイープ等で既に held でない場合はそちらの結果を尊重する
	released, err := s.lockRepo.UpdateStatus(ctx, tx, lock.ID, seatlock.StatusHeld, seatlock.StatusReleased)
	if err != nil {
		return err
	}
	if released {
		if err := s.seatRepo.ReleaseSeats(ctx, tx, lock.SeatIDs, lock.ID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	if released {
		metrics.Get().ActiveSeatLocks.Dec()
		s.invalidateCache(ctx, lock.ScheduleID)
	}
	logger.Info("決済失敗によりロックを解放しました",
		zap.String("transaction_id", attempt.TransactionID),
		zap.String("lock_id", lock.ID))
	return nil
}

// promoteToBooking は決済成功を確定し、ロックを予約に昇格させる
// ロックが期限切れスイープに奪われていた場合は要照合フラグを立てて
// booking.ErrSeatsNoLongerHeld を返す
func (s *BookingService) promoteToBooking(ctx context.Context, attempt *payment.Attempt) (*booking.Booking, error) {
	lock, err := s.lockRepo.GetByID(ctx, attempt.LockID)
	if err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	// 行単位CASでスイープとの競合を決着する。先に昇格できた方が勝つ
	promoted, err := s.lockRepo.UpdateStatus(ctx, tx, lock.ID, seatlock.StatusHeld, seatlock.StatusPromoted)
	if err != nil {
		return nil, err
	}
	if !promoted {
		// CASに敗れた理由を確認する。コールバックとポーリングが同時に確定を
		// 試みた場合、先に昇格した側の予約をそのまま返す（冪等）
		status, serr := s.lockRepo.GetStatus(ctx, tx, lock.ID)
		if serr != nil {
			return nil, serr
		}
		if status == seatlock.StatusPromoted {
			b, berr := s.bookingRepo.GetByTransactionID(ctx, attempt.TransactionID)
			if berr == nil {
				return b, nil
			}
			if !errors.Is(berr, booking.ErrBookingNotFound) {
				return nil, berr
			}
			// 同じロックに対する別の決済が先に昇格した場合のみここに落ちる
		}
		return nil, s.flagReconciliation(ctx, tx, attempt, lock)
	}

	if err := s.seatRepo.SellSeats(ctx, tx, lock.SeatIDs, lock.ID); err != nil {
		if errors.Is(err, seat.ErrSeatNotLocked) {
			return nil, s.flagReconciliation(ctx, tx, attempt, lock)
		}
		return nil, err
	}

	b := booking.NewBooking(lock.ScheduleID, attempt.TransactionID, attempt.PassengerName, attempt.PassengerPhone, lock.SeatIDs, attempt.Amount)
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return nil, err
	}

	if err := attempt.MarkSuccess(); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Update(ctx, tx, attempt); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	metrics.Get().BookingsTotal.WithLabelValues("confirmed").Inc()
	metrics.Get().ActiveSeatLocks.Dec()
	s.invalidateCache(ctx, lock.ScheduleID)

	logger.Info("予約を確定しました",
		zap.String("booking_id", b.ID),
		zap.String("transaction_id", attempt.TransactionID),
		zap.Int("seat_count", len(lock.SeatIDs)))
	return b, nil
}

// flagReconciliation は決済成功と座席喪失の不整合を記録する
// 返金が必要な状態であり、運用者による照合の対象になる
func (s *BookingService) flagReconciliation(ctx context.Context, tx transaction.Tx, attempt *payment.Attempt, lock *seatlock.SeatLock) error {
	if err := attempt.MarkSuccess(); err != nil {
		return err
	}
	attempt.FlagReconciliation()
	if err := s.paymentRepo.Update(ctx, tx, attempt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}

	metrics.Get().BookingsTotal.WithLabelValues("seats_no_longer_held").Inc()
	metrics.Get().ReconciliationRequired.Inc()
	logger.Error("決済成功後に座席が失われました。返金照合が必要です",
		zap.String("transaction_id", attempt.TransactionID),
		zap.String("lock_id", lock.ID),
		zap.Int("amount", attempt.Amount))
	return booking.ErrSeatsNoLongerHeld
}

// resolvedResult は確定済みの決済試行に対する冪等な応答を返す
func (s *BookingService) resolvedResult(ctx context.Context, attempt *payment.Attempt) (*booking.Booking, error) {
	switch attempt.Status {
	case payment.StatusSuccess:
		if attempt.NeedsReconciliation {
			return nil, booking.ErrSeatsNoLongerHeld
		}
		return s.bookingRepo.GetByTransactionID(ctx, attempt.TransactionID)
	case payment.StatusFailed:
		return nil, payment.ErrPaymentFailed
	case payment.StatusExpired:
		return nil, payment.ErrPaymentExpired
	default:
		return nil, payment.ErrPaymentPending
	}
}

// WaitForResolution はゲートウェイの決済状態を終端に達するまでポーリングする
// ctx のキャンセル・タイムアウトで打ち切られる
func (s *BookingService) WaitForResolution(ctx context.Context, transactionID string) (payment.GatewayStatus, error) {
	attempt, err := s.paymentRepo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return payment.GatewayPending, err
	}
	if attempt.GatewayPaymentID == nil {
		return payment.GatewayPending, payment.ErrPaymentNotFound
	}
	gw := s.gateways.ForMethod(attempt.Method)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		status, err := gw.QueryStatus(ctx, *attempt.GatewayPaymentID)
		if err != nil && !errors.Is(err, payment.ErrGatewayUnavailable) {
			return payment.GatewayPending, err
		}
		if err == nil && status != payment.GatewayPending {
			return status, nil
		}
		select {
		case <-ctx.Done():
			return payment.GatewayPending, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ExpireStalePayments は放置された pending の決済試行を期限切れにする
// ゲートウェイ側で成功している決済は打ち切らず、確定処理に委ねる
func (s *BookingService) ExpireStalePayments(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	stale, err := s.paymentRepo.GetStalePending(ctx, olderThan, limit)
	if err != nil {
		return 0, fmt.Errorf("未解決決済取得に失敗: %w", err)
	}

	expired := 0
	for _, attempt := range stale {
		if attempt.GatewayPaymentID != nil {
			gw := s.gateways.ForMethod(attempt.Method)
			status, qerr := gw.QueryStatus(ctx, *attempt.GatewayPaymentID)
			if qerr == nil && status == payment.GatewaySuccess {
				continue
			}
		}
		if err := s.markResolved(ctx, attempt, attempt.MarkExpired); err != nil {
			logger.Error("決済の期限切れ処理に失敗しました",
				zap.String("transaction_id", attempt.TransactionID), zap.Error(err))
			continue
		}
		expired++
	}
	if expired > 0 {
		logger.Info("放置された決済を期限切れにしました", zap.Int("count", expired))
	}
	return expired, nil
}

// GetPayment はトランザクションIDから決済試行を取得する
// ゲートウェイには問い合わせず、記録済みの状態をそのまま返す
func (s *BookingService) GetPayment(ctx context.Context, transactionID string) (*payment.Attempt, error) {
	return s.paymentRepo.GetByTransactionID(ctx, transactionID)
}

// GetBooking はIDから予約を取得する
func (s *BookingService) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// GetBookingByTransactionID はトランザクションIDから予約を取得する
func (s *BookingService) GetBookingByTransactionID(ctx context.Context, transactionID string) (*booking.Booking, error) {
	return s.bookingRepo.GetByTransactionID(ctx, transactionID)
}

// CancelBooking は確定済みの予約をキャンセルし、座席を空席に戻す
// 返金の実行は決済プロバイダ側の運用に委ねる
func (s *BookingService) CancelBooking(ctx context.Context, id string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.Cancel(); err != nil {
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.Update(ctx, tx, b); err != nil {
		return nil, err
	}
	// 座席占有を解除しないと、再販後の予約確定が一意制約で失敗する
	if err := s.bookingRepo.ReleaseSeats(ctx, tx, b.ID); err != nil {
		return nil, err
	}
	if err := s.seatRepo.ReleaseSoldSeats(ctx, tx, b.SeatIDs); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, b.ScheduleID)
	logger.Info("予約をキャンセルしました", zap.String("booking_id", id))
	return b, nil
}

// markResolved は決済試行を終端状態に更新する
func (s *BookingService) markResolved(ctx context.Context, attempt *payment.Attempt, resolve func() error) error {
	if err := resolve(); err != nil {
		return err
	}
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()
	if err := s.paymentRepo.Update(ctx, tx, attempt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// totalAmount はロック対象座席の合計金額を計算する
func (s *BookingService) totalAmount(ctx context.Context, lock *seatlock.SeatLock) (int, error) {
	seats, err := s.seatRepo.GetByScheduleID(ctx, lock.ScheduleID)
	if err != nil {
		return 0, fmt.Errorf("座席取得に失敗: %w", err)
	}
	priceByID := make(map[string]int, len(seats))
	for _, se := range seats {
		priceByID[se.ID] = se.Price
	}
	total := 0
	for _, id := range lock.SeatIDs {
		price, ok := priceByID[id]
		if !ok {
			return 0, seat.ErrSeatNotFound
		}
		total += price
	}
	return total, nil
}

func (s *BookingService) invalidateCache(ctx context.Context, scheduleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, scheduleID); err != nil {
		logger.Warn("空席数キャッシュの無効化に失敗しました",
			zap.String("schedule_id", scheduleID), zap.Error(err))
	}
}
