package seat

import (
	"context"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
// 状態遷移は全て条件付き一括更新（compare-and-set）で行い、
// 対象座席のいずれかが前提状態を満たさない場合は1席も更新しない
type Repository interface {
	// Create は新しい座席を作成する
	Create(ctx context.Context, seat *Seat) error

	// CreateBulk は複数の座席を一括作成する
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByID はIDから座席を取得する
	GetByID(ctx context.Context, id string) (*Seat, error)

	// GetByScheduleID は運行便IDから座席一覧を取得する
	GetByScheduleID(ctx context.Context, scheduleID string) ([]*Seat, error)

	// GetAvailableByScheduleID は運行便IDから空席一覧を取得する
	GetAvailableByScheduleID(ctx context.Context, scheduleID string) ([]*Seat, error)

	// GetUnavailableIDs は指定座席のうち空席でないものを返す（競合の報告用）
	GetUnavailableIDs(ctx context.Context, scheduleID string, seatIDs []string) ([]string, error)

	// GetExistingIDs は指定座席IDのうち、運行便に実在するものを返す
	// 実在しない座席IDは競合ではなくエラーとして扱うための存在確認に使う
	GetExistingIDs(ctx context.Context, scheduleID string, seatIDs []string) ([]string, error)

	// LockSeats は座席を available → locked に遷移させる（全席成功か全席失敗か）
	LockSeats(ctx context.Context, tx transaction.Tx, scheduleID string, seatIDs []string, lockID string) error

	// SellSeats はロック所有者の座席を locked → sold に遷移させる
	SellSeats(ctx context.Context, tx transaction.Tx, seatIDs []string, lockID string) error

	// ReleaseSeats はロック所有者の座席を locked → available に戻す
	ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string, lockID string) error

	// ReleaseSoldSeats は予約キャンセル時に sold → available に戻す
	ReleaseSoldSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error

	// CountAvailableByScheduleID は運行便の空席数を取得する
	CountAvailableByScheduleID(ctx context.Context, scheduleID string) (int, error)
}
