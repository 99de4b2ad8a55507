package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/booking"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID             string     `db:"id"`
	ScheduleID     string     `db:"schedule_id"`
	PassengerName  string     `db:"passenger_name"`
	PassengerPhone string     `db:"passenger_phone"`
	TransactionID  string     `db:"transaction_id"`
	Amount         int        `db:"amount"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
	CancelledAt    *time.Time `db:"cancelled_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

const bookingColumns = `id, schedule_id, passenger_name, passenger_phone, transaction_id, amount, status, created_at, cancelled_at, updated_at`

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	query := `INSERT INTO bookings (schedule_id, passenger_name, passenger_phone, transaction_id, amount, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		b.ScheduleID, b.PassengerName, b.PassengerPhone, b.TransactionID, b.Amount, string(b.Status), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID); err != nil {
		return translateBookingErr(err)
	}
	for _, seatID := range b.SeatIDs {
		if _, err := sqlxTx.ExecContext(ctx, `INSERT INTO booking_seats (booking_id, seat_id) VALUES ($1, $2)`, b.ID, seatID); err != nil {
			return translateBookingErr(err)
		}
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

func (r *BookingRepository) GetByTransactionID(ctx context.Context, transactionID string) (*booking.Booking, error) {
	return r.getOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE transaction_id = $1`, transactionID)
}

func (r *BookingRepository) Update(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	query := `UPDATE bookings SET status = $1, cancelled_at = $2, updated_at = $3 WHERE id = $4`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, string(b.Status), b.CancelledAt, b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return booking.ErrBookingNotFound
	}
	return nil
}

// ReleaseSeats は予約座席の占有を解除し、部分ユニークインデックスの対象外にする
// 行は履歴として残すため、キャンセル済み予約でも座席IDは参照できる
func (r *BookingRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, bookingID string) error {
	query := `UPDATE booking_seats SET released_at = NOW() WHERE booking_id = $1 AND released_at IS NULL`
	if _, err := UnwrapTx(tx).ExecContext(ctx, query, bookingID); err != nil {
		return fmt.Errorf("予約座席の解放に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) getOne(ctx context.Context, query, arg string) (*booking.Booking, error) {
	var row bookingRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	var seatIDs []string
	if err := r.db.SelectContext(ctx, &seatIDs, `SELECT seat_id FROM booking_seats WHERE booking_id = $1`, row.ID); err != nil {
		return nil, fmt.Errorf("予約座席ID取得に失敗: %w", err)
	}
	return &booking.Booking{
		ID: row.ID, ScheduleID: row.ScheduleID, SeatIDs: seatIDs,
		PassengerName: row.PassengerName, PassengerPhone: row.PassengerPhone,
		TransactionID: row.TransactionID, Amount: row.Amount,
		Status:    booking.Status(row.Status),
		CreatedAt: row.CreatedAt, CancelledAt: row.CancelledAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

// translateBookingErr は一意制約違反をドメインエラーに変換する
// booking_seats の部分ユニークインデックス（released_at IS NULL の範囲）が
// 有効な予約間での同一座席の二重予約を検出する
func translateBookingErr(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return booking.ErrSeatAlreadyBooked
	}
	return fmt.Errorf("予約作成に失敗: %w", err)
}


var _ booking.Repository = (*BookingRepository)(nil)
