package seatlock

import (
	"errors"
	"fmt"
	"strings"
)

// SeatLock ドメインのエラー定義
var (
	ErrLockNotFound       = errors.New("座席ロックが見つかりません")
	ErrLockNotHeld        = errors.New("座席ロックは保持されていません")
	ErrNotLockOwner       = errors.New("座席ロックの所有者ではありません")
	ErrLockExpired        = errors.New("座席ロックの有効期限が切れています")
	ErrScheduleIDRequired = errors.New("運行便IDは必須です")
	ErrOwnerTokenRequired = errors.New("オーナートークンは必須です")
	ErrSeatIDsRequired    = errors.New("座席IDは必須です")
	ErrDuplicateSeatIDs   = errors.New("座席IDが重複しています")
	ErrInvalidTTL         = errors.New("有効期間が不正です")
)

// ConflictError は要求した座席の一部が確保できなかったことを表す
// 確保できなかった座席IDを呼び出し元に報告する
type ConflictError struct {
	UnavailableSeatIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("座席が確保できません: %s", strings.Join(e.UnavailableSeatIDs, ", "))
}

// NewConflictError は競合エラーを作成する
func NewConflictError(unavailableSeatIDs []string) *ConflictError {
	return &ConflictError{UnavailableSeatIDs: unavailableSeatIDs}
}
