package seat

import "time"

// Status は座席の状態を表す
type Status string

const (
	StatusAvailable Status = "available"
	StatusLocked    Status = "locked"
	StatusSold      Status = "sold"
)

// Seat は座席エンティティを表す
// Locked は決済待ちの一時確保、Sold は予約確定済みを意味する
type Seat struct {
	ID         string
	ScheduleID string
	SeatNumber string
	Status     Status
	Price      int
	LockID     *string
	LockedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int // 楽観的ロック用
}

// NewSeat は新しい座席を作成する
func NewSeat(scheduleID, seatNumber string, price int) *Seat {
	now := time.Now()
	return &Seat{
		ScheduleID: scheduleID,
		SeatNumber: seatNumber,
		Status:     StatusAvailable,
		Price:      price,
		CreatedAt:  now,
		UpdatedAt:  now,
		Version:    0,
	}
}

// IsAvailable は座席がロック可能かを返す
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// Lock は座席をロック状態にする
func (s *Seat) Lock(lockID string) error {
	if s.Status != StatusAvailable {
		return ErrSeatNotAvailable
	}
	now := time.Now()
	s.Status = StatusLocked
	s.LockID = &lockID
	s.LockedAt = &now
	s.UpdatedAt = now
	return nil
}

// Sell は座席を販売済み状態にする
func (s *Seat) Sell() error {
	if s.Status != StatusLocked {
		return ErrSeatNotLocked
	}
	s.Status = StatusSold
	s.UpdatedAt = time.Now()
	return nil
}

// Release はロックを外して座席を解放する
// 販売済みの座席には作用しない
func (s *Seat) Release() error {
	if s.Status == StatusSold {
		return ErrSeatAlreadySold
	}
	s.Status = StatusAvailable
	s.LockID = nil
	s.LockedAt = nil
	s.UpdatedAt = time.Now()
	return nil
}

// Validate は座席の検証を行う
func (s *Seat) Validate() error {
	if s.ScheduleID == "" {
		return ErrScheduleIDRequired
	}
	if s.SeatNumber == "" {
		return ErrSeatNumberRequired
	}
	if s.Price < 0 {
		return ErrInvalidPrice
	}
	return nil
}
