package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Booking は確定済みの予約を表す
// 成功した決済トランザクションと販売済み座席を参照する
type Booking struct {
	ID             string
	ScheduleID     string
	SeatIDs        []string
	PassengerName  string
	PassengerPhone string
	TransactionID  string
	Amount         int
	Status         Status
	CreatedAt      time.Time
	CancelledAt    *time.Time
	UpdatedAt      time.Time
}

// NewBooking は新しい確定予約を作成する
func NewBooking(scheduleID, transactionID, passengerName, passengerPhone string, seatIDs []string, amount int) *Booking {
	now := time.Now()
	return &Booking{
		ScheduleID:     scheduleID,
		SeatIDs:        seatIDs,
		PassengerName:  passengerName,
		PassengerPhone: passengerPhone,
		TransactionID:  transactionID,
		Amount:         amount,
		Status:         StatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsConfirmed は予約が有効かを返す
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}

// Cancel は予約をキャンセルする
func (b *Booking) Cancel() error {
	if b.Status == StatusCancelled {
		return ErrBookingAlreadyCancelled
	}
	now := time.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.ScheduleID == "" {
		return ErrScheduleIDRequired
	}
	if b.TransactionID == "" {
		return ErrTransactionIDRequired
	}
	if len(b.SeatIDs) == 0 {
		return ErrSeatIDsRequired
	}
	if b.PassengerName == "" {
		return ErrPassengerNameRequired
	}
	return nil
}
