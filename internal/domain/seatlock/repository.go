package seatlock

import (
	"context"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// Repository は座席ロックリポジトリのインターフェース
type Repository interface {
	// Create は新しいロックを作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, lock *SeatLock) error

	// GetByID はIDからロックを取得する
	GetByID(ctx context.Context, id string) (*SeatLock, error)

	// UpdateStatus はロックの状態を条件付きで遷移させる
	// 現在の状態が from と一致する場合のみ to に更新し、更新できたかを返す
	// スイープと昇格の競合はこの行単位CASで決着する
	UpdateStatus(ctx context.Context, tx transaction.Tx, id string, from, to Status) (bool, error)

	// GetStatus はトランザクション内でロックの現在状態を読み直す
	// CASに敗れた側が、勝者が昇格だったのかスイープだったのかを判別するために使う
	GetStatus(ctx context.Context, tx transaction.Tx, id string) (Status, error)

	// UpdateExpiresAt はロックの有効期限を更新する（held のみ）
	UpdateExpiresAt(ctx context.Context, tx transaction.Tx, lock *SeatLock) error

	// GetExpiredHeld は期限切れだが未解放のロック一覧を取得する
	GetExpiredHeld(ctx context.Context, limit int) ([]*SeatLock, error)
}
