package seat

import "errors"

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound       = errors.New("座席が見つかりません")
	ErrSeatNotAvailable   = errors.New("座席はロックできません")
	ErrSeatNotLocked      = errors.New("座席はロックされていません")
	ErrSeatAlreadySold    = errors.New("座席は既に販売済みです")
	ErrScheduleIDRequired = errors.New("運行便IDは必須です")
	ErrSeatNumberRequired = errors.New("座席番号は必須です")
	ErrInvalidPrice       = errors.New("価格は0以上である必要があります")
)
