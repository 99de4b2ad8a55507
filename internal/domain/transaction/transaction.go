package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// 座席ロックの作成や決済確定は複数テーブルにまたがるため、
// アプリケーション層がインフラ層（sqlx等）に依存せず境界を張れるようにする
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	// コミット済みの場合は呼んでも安全
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
