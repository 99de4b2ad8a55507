package handler

import (
	"context"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/booking"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
)

// ScheduleServiceInterface は運行便サービスのインターフェース
type ScheduleServiceInterface interface {
	CreateSchedule(ctx context.Context, input application.CreateScheduleInput) (*schedule.Schedule, error)
	GetSchedule(ctx context.Context, id string) (*schedule.Schedule, error)
	ListSchedules(ctx context.Context, limit, offset int) ([]*schedule.Schedule, error)
	UpdateSchedule(ctx context.Context, input application.UpdateScheduleInput) (*schedule.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	CreateSeat(ctx context.Context, input application.CreateSeatInput) (*seat.Seat, error)
	CreateBulkSeats(ctx context.Context, input application.CreateBulkSeatsInput) ([]*seat.Seat, error)
	GetSeat(ctx context.Context, id string) (*seat.Seat, error)
	GetSeatsBySchedule(ctx context.Context, scheduleID string) ([]*seat.Seat, error)
	GetAvailableSeatsBySchedule(ctx context.Context, scheduleID string) ([]*seat.Seat, error)
	CountAvailableSeats(ctx context.Context, scheduleID string) (int, error)
}

// LockServiceInterface は座席ロックサービスのインターフェース
type LockServiceInterface interface {
	AcquireLock(ctx context.Context, input application.AcquireLockInput) (*seatlock.SeatLock, error)
	GetLock(ctx context.Context, lockID, ownerToken string) (*seatlock.SeatLock, error)
	ReleaseLock(ctx context.Context, lockID, ownerToken string) error
	ExtendLock(ctx context.Context, lockID, ownerToken string, additional time.Duration) (*seatlock.SeatLock, error)
	ReleaseExpiredLocks(ctx context.Context, limit int) (int, error)
}

// BookingServiceInterface は決済・予約サービスのインターフェース
type BookingServiceInterface interface {
	InitiatePayment(ctx context.Context, input application.InitiatePaymentInput) (*payment.Attempt, error)
	ConfirmPayment(ctx context.Context, input application.ConfirmPaymentInput) (*booking.Booking, error)
	WaitForResolution(ctx context.Context, transactionID string) (payment.GatewayStatus, error)
	GetPayment(ctx context.Context, transactionID string) (*payment.Attempt, error)
	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	GetBookingByTransactionID(ctx context.Context, transactionID string) (*booking.Booking, error)
	CancelBooking(ctx context.Context, id string) (*booking.Booking, error)
	ExpireStalePayments(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}
