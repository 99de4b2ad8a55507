package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound         = errors.New("予約が見つかりません")
	ErrBookingAlreadyCancelled = errors.New("予約は既にキャンセルされています")
	ErrSeatAlreadyBooked       = errors.New("座席は既に別の予約に含まれています")
	ErrScheduleIDRequired      = errors.New("運行便IDは必須です")
	ErrTransactionIDRequired   = errors.New("トランザクションIDは必須です")
	ErrSeatIDsRequired         = errors.New("座席IDは必須です")
	ErrPassengerNameRequired   = errors.New("乗客名は必須です")

	// ErrSeatsNoLongerHeld は決済成功後に座席ロックが失われていた状態
	// 返金処理が必要な運用例外として必ず呼び出し元に報告する
	ErrSeatsNoLongerHeld = errors.New("決済は成功しましたが座席は既に解放されています")
)
