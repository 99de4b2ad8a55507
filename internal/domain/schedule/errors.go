package schedule

import "errors"

// Schedule ドメインのエラー定義
var (
	ErrScheduleNotFound          = errors.New("運行便が見つかりません")
	ErrScheduleNotOpen           = errors.New("この便は予約を受け付けていません")
	ErrRouteNameRequired         = errors.New("路線名は必須です")
	ErrOriginDestinationRequired = errors.New("出発地と到着地は必須です")
	ErrInvalidTotalSeats         = errors.New("座席数は1以上である必要があります")
	ErrInvalidScheduleTime       = errors.New("到着時刻は出発時刻より後である必要があります")
	ErrOptimisticLockConflict    = errors.New("楽観的ロックの競合が発生しました")
)
