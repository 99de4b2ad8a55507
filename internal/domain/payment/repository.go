package payment

import (
	"context"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// Repository は決済試行リポジトリのインターフェース
type Repository interface {
	// Create は新しい決済試行を作成する
	Create(ctx context.Context, attempt *Attempt) error

	// GetByTransactionID はトランザクションIDから決済試行を取得する
	GetByTransactionID(ctx context.Context, transactionID string) (*Attempt, error)

	// GetByLockID はロックIDから決済試行一覧を取得する
	GetByLockID(ctx context.Context, lockID string) ([]*Attempt, error)

	// Update は決済試行を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, attempt *Attempt) error

	// GetStalePending は指定時間より古い未解決の決済試行を取得する（スイープ用）
	GetStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*Attempt, error)
}
