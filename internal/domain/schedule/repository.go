package schedule

import "context"

// Repository は運行便リポジトリのインターフェース
type Repository interface {
	// Create は新しい運行便を作成する
	Create(ctx context.Context, s *Schedule) error

	// GetByID はIDから運行便を取得する
	GetByID(ctx context.Context, id string) (*Schedule, error)

	// List は運行便一覧を取得する
	List(ctx context.Context, limit, offset int) ([]*Schedule, error)

	// Update は運行便を更新する（楽観的ロック）
	Update(ctx context.Context, s *Schedule) error

	// Delete は運行便を削除する
	Delete(ctx context.Context, id string) error
}
