package booking

import (
	"context"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// 同じ座席を含む予約が既に存在する場合は ErrSeatAlreadyBooked を返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByTransactionID はトランザクションIDから予約を取得する（冪等性確認用）
	GetByTransactionID(ctx context.Context, transactionID string) (*Booking, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, b *Booking) error

	// ReleaseSeats はキャンセルされた予約の座席占有を解除する
	// 解除後、同じ座席は別の予約で再び確定できる
	ReleaseSeats(ctx context.Context, tx transaction.Tx, bookingID string) error
}
