package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

type seatRow struct {
	ID         string     `db:"id"`
	ScheduleID string     `db:"schedule_id"`
	SeatNumber string     `db:"seat_number"`
	Status     string     `db:"status"`
	Price      int        `db:"price"`
	LockID     *string    `db:"lock_id"`
	LockedAt   *time.Time `db:"locked_at"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	Version    int        `db:"version"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, ScheduleID: r.ScheduleID, SeatNumber: r.SeatNumber,
		Status: seat.Status(r.Status), Price: r.Price,
		LockID: r.LockID, LockedAt: r.LockedAt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

const seatColumns = `id, schedule_id, seat_number, status, price, lock_id, locked_at, created_at, updated_at, version`

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	query := `INSERT INTO seats (schedule_id, seat_number, status, price, created_at, updated_at, version) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query, s.ScheduleID, s.SeatNumber, string(s.Status), s.Price, s.CreatedAt, s.UpdatedAt, s.Version).Scan(&s.ID)
}

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// createBulkBatch はバッチ単位でマルチバリューINSERTを実行
func (r *SeatRepository) createBulkBatch(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	query := `INSERT INTO seats (schedule_id, seat_number, status, price, created_at, updated_at, version) VALUES `
	args := make([]interface{}, 0, len(seats)*7)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 7
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, s.ScheduleID, s.SeatNumber, string(s.Status), s.Price, s.CreatedAt, s.UpdatedAt, s.Version)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) GetByID(ctx context.Context, id string) (*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE id = $1`
	var row seatRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seat.ErrSeatNotFound
		}
		return nil, fmt.Errorf("座席取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *SeatRepository) GetByScheduleID(ctx context.Context, scheduleID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE schedule_id = $1 ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, err
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

func (r *SeatRepository) GetAvailableByScheduleID(ctx context.Context, scheduleID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE schedule_id = $1 AND status = 'available' ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, scheduleID); err != nil {
		return nil, err
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

func (r *SeatRepository) GetUnavailableIDs(ctx context.Context, scheduleID string, seatIDs []string) ([]string, error) {
	var ids []string
	query := `SELECT id FROM seats WHERE schedule_id = $1 AND id = ANY($2) AND status <> 'available' ORDER BY seat_number`
	if err := r.db.SelectContext(ctx, &ids, query, scheduleID, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("座席状態取得に失敗: %w", err)
	}
	return ids, nil
}

func (r *SeatRepository) GetExistingIDs(ctx context.Context, scheduleID string, seatIDs []string) ([]string, error) {
	var ids []string
	query := `SELECT id FROM seats WHERE schedule_id = $1 AND id = ANY($2)`
	if err := r.db.SelectContext(ctx, &ids, query, scheduleID, pq.Array(seatIDs)); err != nil {
		return nil, fmt.Errorf("座席存在確認に失敗: %w", err)
	}
	return ids, nil
}

// LockSeats は対象座席全てが available の場合のみ locked に遷移させる
// 更新行数が要求数に満たない場合はロールバック前提で ErrSeatNotAvailable を返す
func (r *SeatRepository) LockSeats(ctx context.Context, tx transaction.Tx, scheduleID string, seatIDs []string, lockID string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'locked', lock_id = $1, locked_at = NOW(), updated_at = NOW(), version = version + 1
		WHERE schedule_id = $2 AND id = ANY($3) AND status = 'available'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, lockID, scheduleID, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("座席ロックに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatNotAvailable
	}
	return nil
}

// SellSeats はロック所有者の座席全てを sold に遷移させる
func (r *SeatRepository) SellSeats(ctx context.Context, tx transaction.Tx, seatIDs []string, lockID string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'sold', updated_at = NOW(), version = version + 1
		WHERE id = ANY($1) AND status = 'locked' AND lock_id = $2`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(seatIDs), lockID)
	if err != nil {
		return fmt.Errorf("座席販売確定に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatNotLocked
	}
	return nil
}

// ReleaseSeats はロック所有者の座席を available に戻す
// 所有者が一致しない座席（既にスイープ済み等）は対象外のまま成功扱いとする
func (r *SeatRepository) ReleaseSeats(ctx context.Context, tx transaction.Tx, seatIDs []string, lockID string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'available', lock_id = NULL, locked_at = NULL, updated_at = NOW(), version = version + 1
		WHERE id = ANY($1) AND status = 'locked' AND lock_id = $2`
	_, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(seatIDs), lockID)
	if err != nil {
		return fmt.Errorf("座席解放に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) ReleaseSoldSeats(ctx context.Context, tx transaction.Tx, seatIDs []string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `UPDATE seats SET status = 'available', lock_id = NULL, locked_at = NULL, updated_at = NOW(), version = version + 1
		WHERE id = ANY($1) AND status = 'sold'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, pq.Array(seatIDs))
	if err != nil {
		return fmt.Errorf("販売済み座席の解放に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatIDs) {
		return seat.ErrSeatNotFound
	}
	return nil
}

func (r *SeatRepository) CountAvailableByScheduleID(ctx context.Context, scheduleID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE schedule_id = $1 AND status = 'available'`, scheduleID)
	return count, err
}

var _ seat.Repository = (*SeatRepository)(nil)
