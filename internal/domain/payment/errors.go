package payment

import "errors"

// Payment ドメインのエラー定義
var (
	ErrPaymentNotFound       = errors.New("決済が見つかりません")
	ErrDuplicateTransaction  = errors.New("トランザクションIDが重複しています")
	ErrAlreadyResolved       = errors.New("決済は既に確定しています")
	ErrTransactionIDRequired = errors.New("トランザクションIDは必須です")
	ErrLockIDRequired        = errors.New("座席ロックIDは必須です")
	ErrInvalidAmount         = errors.New("金額は1以上である必要があります")
	ErrInvalidMethod         = errors.New("決済手段が不正です")

	// ErrPaymentFailed はゲートウェイが失敗を報告した終端エラー
	// リトライしてはならない
	ErrPaymentFailed = errors.New("決済が失敗しました")

	// ErrPaymentExpired は決済が期限切れで打ち切られた終端エラー
	ErrPaymentExpired = errors.New("決済の有効期限が切れています")

	// ErrPaymentPending はゲートウェイがまだ未解決と報告している状態
	ErrPaymentPending = errors.New("決済はまだ確定していません")

	// ErrGatewayUnavailable はネットワーク・プロバイダ側の一時的なエラー
	// ErrPaymentFailed とは区別され、バックオフ付きでリトライできる
	ErrGatewayUnavailable = errors.New("決済ゲートウェイに接続できません")
)
