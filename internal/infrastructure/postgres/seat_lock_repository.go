package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

type seatLockRow struct {
	ID         string    `db:"id"`
	ScheduleID string    `db:"schedule_id"`
	OwnerToken string    `db:"owner_token"`
	Status     string    `db:"status"`
	ExpiresAt  time.Time `db:"expires_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type SeatLockRepository struct{ db *sqlx.DB }

func NewSeatLockRepository(db *sqlx.DB) *SeatLockRepository {
	return &SeatLockRepository{db: db}
}

func (r *SeatLockRepository) Create(ctx context.Context, tx transaction.Tx, lock *seatlock.SeatLock) error {
	sqlxTx := UnwrapTx(tx)
	query := `INSERT INTO seat_locks (schedule_id, owner_token, status, expires_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := sqlxTx.QueryRowContext(ctx, query,
		lock.ScheduleID, lock.OwnerToken, string(lock.Status), lock.ExpiresAt, lock.CreatedAt, lock.UpdatedAt,
	).Scan(&lock.ID); err != nil {
		return fmt.Errorf("座席ロック作成に失敗: %w", err)
	}
	for _, seatID := range lock.SeatIDs {
		if _, err := sqlxTx.ExecContext(ctx, `INSERT INTO seat_lock_seats (lock_id, seat_id) VALUES ($1, $2)`, lock.ID, seatID); err != nil {
			return fmt.Errorf("ロック座席関連付けに失敗: %w", err)
		}
	}
	return nil
}

func (r *SeatLockRepository) GetByID(ctx context.Context, id string) (*seatlock.SeatLock, error) {
	var row seatLockRow
	query := `SELECT id, schedule_id, owner_token, status, expires_at, created_at, updated_at FROM seat_locks WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seatlock.ErrLockNotFound
		}
		return nil, fmt.Errorf("座席ロック取得に失敗: %w", err)
	}
	seatIDs, err := r.getSeatIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.toEntity(&row, seatIDs), nil
}

// UpdateStatus はロック行の状態を条件付きで遷移させる
// スイープ（held→expired）と昇格（held→promoted）の競合はこの行単位CASで決着し、
// 敗者には false が返る
func (r *SeatLockRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, id string, from, to seatlock.Status) (bool, error) {
	query := `UPDATE seat_locks SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("座席ロック状態更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

// GetStatus はトランザクション内でロック行の現在状態を読み直す
// CASで敗れた後に呼ぶと、勝者（昇格かスイープか）のコミット済み状態が見える
func (r *SeatLockRepository) GetStatus(ctx context.Context, tx transaction.Tx, id string) (seatlock.Status, error) {
	var status string
	if err := UnwrapTx(tx).QueryRowContext(ctx, `SELECT status FROM seat_locks WHERE id = $1`, id).Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", seatlock.ErrLockNotFound
		}
		return "", fmt.Errorf("座席ロック状態取得に失敗: %w", err)
	}
	return seatlock.Status(status), nil
}

func (r *SeatLockRepository) UpdateExpiresAt(ctx context.Context, tx transaction.Tx, lock *seatlock.SeatLock) error {
	query := `UPDATE seat_locks SET expires_at = $1, updated_at = NOW() WHERE id = $2 AND status = 'held'`
	result, err := UnwrapTx(tx).ExecContext(ctx, query, lock.ExpiresAt, lock.ID)
	if err != nil {
		return fmt.Errorf("座席ロック延長に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return seatlock.ErrLockNotHeld
	}
	return nil
}

func (r *SeatLockRepository) GetExpiredHeld(ctx context.Context, limit int) ([]*seatlock.SeatLock, error) {
	var rows []seatLockRow
	query := `SELECT id, schedule_id, owner_token, status, expires_at, created_at, updated_at FROM seat_locks WHERE status = 'held' AND expires_at < NOW() ORDER BY expires_at LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("期限切れロック取得に失敗: %w", err)
	}
	result := make([]*seatlock.SeatLock, len(rows))
	for i, row := range rows {
		seatIDs, err := r.getSeatIDs(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		result[i] = r.toEntity(&row, seatIDs)
	}
	return result, nil
}

func (r *SeatLockRepository) getSeatIDs(ctx context.Context, lockID string) ([]string, error) {
	var seatIDs []string
	if err := r.db.SelectContext(ctx, &seatIDs, `SELECT seat_id FROM seat_lock_seats WHERE lock_id = $1`, lockID); err != nil {
		return nil, fmt.Errorf("ロック座席ID取得に失敗: %w", err)
	}
	return seatIDs, nil
}

func (r *SeatLockRepository) toEntity(row *seatLockRow, seatIDs []string) *seatlock.SeatLock {
	return &seatlock.SeatLock{
		ID: row.ID, ScheduleID: row.ScheduleID, OwnerToken: row.OwnerToken,
		SeatIDs: seatIDs, Status: seatlock.Status(row.Status),
		ExpiresAt: row.ExpiresAt, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ seatlock.Repository = (*SeatLockRepository)(nil)
