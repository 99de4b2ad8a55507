package seatlock

import "time"

// Status は座席ロックの状態を表す
type Status string

const (
	// StatusHeld はロック保持中（決済待ち）
	StatusHeld Status = "held"
	// StatusReleased は明示的な解放またはロック失敗後の状態
	StatusReleased Status = "released"
	// StatusExpired はTTL切れでスイープにより解放された状態
	StatusExpired Status = "expired"
	// StatusPromoted は予約確定に昇格した状態（スイープ対象外）
	StatusPromoted Status = "promoted"
)

// DefaultTTL はロックの既定有効期間
const DefaultTTL = 10 * time.Minute

// SeatLock は複数座席に対する時間制限付きの排他的な仮押さえを表す
type SeatLock struct {
	ID         string
	ScheduleID string
	SeatIDs    []string
	OwnerToken string
	Status     Status
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSeatLock は新しい座席ロックを作成する
func NewSeatLock(scheduleID, ownerToken string, seatIDs []string, ttl time.Duration) *SeatLock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &SeatLock{
		ScheduleID: scheduleID,
		SeatIDs:    seatIDs,
		OwnerToken: ownerToken,
		Status:     StatusHeld,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsHeld はロックが保持中かを返す
func (l *SeatLock) IsHeld() bool {
	return l.Status == StatusHeld
}

// IsExpired はロックが期限切れかを返す
func (l *SeatLock) IsExpired() bool {
	return time.Now().After(l.ExpiresAt)
}

// Release はロックを解放済みにする
// 既に解放・期限切れ・昇格済みの場合は何もしない（冪等）
func (l *SeatLock) Release() bool {
	if l.Status != StatusHeld {
		return false
	}
	l.Status = StatusReleased
	l.UpdatedAt = time.Now()
	return true
}

// Expire はロックを期限切れにする（スイープ専用）
func (l *SeatLock) Expire() error {
	if l.Status != StatusHeld {
		return ErrLockNotHeld
	}
	l.Status = StatusExpired
	l.UpdatedAt = time.Now()
	return nil
}

// Promote はロックを予約確定に昇格させる
func (l *SeatLock) Promote() error {
	if l.Status != StatusHeld {
		return ErrLockNotHeld
	}
	l.Status = StatusPromoted
	l.UpdatedAt = time.Now()
	return nil
}

// Extend はロックの有効期限を延長する
func (l *SeatLock) Extend(additional time.Duration) error {
	if l.Status != StatusHeld {
		return ErrLockNotHeld
	}
	if l.IsExpired() {
		return ErrLockExpired
	}
	if additional <= 0 {
		return ErrInvalidTTL
	}
	l.ExpiresAt = l.ExpiresAt.Add(additional)
	l.UpdatedAt = time.Now()
	return nil
}

// Validate はロックの検証を行う
func (l *SeatLock) Validate() error {
	if l.ScheduleID == "" {
		return ErrScheduleIDRequired
	}
	if l.OwnerToken == "" {
		return ErrOwnerTokenRequired
	}
	if len(l.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	seen := make(map[string]struct{}, len(l.SeatIDs))
	for _, id := range l.SeatIDs {
		if _, ok := seen[id]; ok {
			return ErrDuplicateSeatIDs
		}
		seen[id] = struct{}{}
	}
	if !l.ExpiresAt.After(l.CreatedAt) {
		return ErrInvalidTTL
	}
	return nil
}
