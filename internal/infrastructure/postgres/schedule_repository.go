package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
)

type scheduleRow struct {
	ID          string    `db:"id"`
	RouteName   string    `db:"route_name"`
	Origin      string    `db:"origin"`
	Destination string    `db:"destination"`
	BusNumber   string    `db:"bus_number"`
	DepartAt    time.Time `db:"depart_at"`
	ArriveAt    time.Time `db:"arrive_at"`
	TotalSeats  int       `db:"total_seats"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
	Version     int       `db:"version"`
}

func (r *scheduleRow) toEntity() *schedule.Schedule {
	return &schedule.Schedule{
		ID: r.ID, RouteName: r.RouteName, Origin: r.Origin, Destination: r.Destination,
		BusNumber: r.BusNumber, DepartAt: r.DepartAt, ArriveAt: r.ArriveAt,
		TotalSeats: r.TotalSeats, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		Version: r.Version,
	}
}

type ScheduleRepository struct{ db *sqlx.DB }

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository { return &ScheduleRepository{db: db} }

func (r *ScheduleRepository) Create(ctx context.Context, s *schedule.Schedule) error {
	query := `INSERT INTO schedules (route_name, origin, destination, bus_number, depart_at, arrive_at, total_seats, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		s.RouteName, s.Origin, s.Destination, s.BusNumber, s.DepartAt, s.ArriveAt,
		s.TotalSeats, s.CreatedAt, s.UpdatedAt, s.Version,
	).Scan(&s.ID); err != nil {
		return fmt.Errorf("運行便作成に失敗: %w", err)
	}
	return nil
}

func (r *ScheduleRepository) GetByID(ctx context.Context, id string) (*schedule.Schedule, error) {
	query := `SELECT id, route_name, origin, destination, bus_number, depart_at, arrive_at, total_seats, created_at, updated_at, version FROM schedules WHERE id = $1`
	var row scheduleRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, schedule.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("運行便取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ScheduleRepository) List(ctx context.Context, limit, offset int) ([]*schedule.Schedule, error) {
	query := `SELECT id, route_name, origin, destination, bus_number, depart_at, arrive_at, total_seats, created_at, updated_at, version FROM schedules ORDER BY depart_at LIMIT $1 OFFSET $2`
	var rows []scheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("運行便一覧取得に失敗: %w", err)
	}
	schedules := make([]*schedule.Schedule, len(rows))
	for i, row := range rows {
		schedules[i] = row.toEntity()
	}
	return schedules, nil
}

func (r *ScheduleRepository) Update(ctx context.Context, s *schedule.Schedule) error {
	query := `UPDATE schedules SET route_name = $1, origin = $2, destination = $3, bus_number = $4, depart_at = $5, arrive_at = $6, total_seats = $7, updated_at = NOW(), version = version + 1
		WHERE id = $8 AND version = $9`
	result, err := r.db.ExecContext(ctx, query,
		s.RouteName, s.Origin, s.Destination, s.BusNumber, s.DepartAt, s.ArriveAt,
		s.TotalSeats, s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("運行便更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schedule.ErrOptimisticLockConflict
	}
	s.Version++
	return nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("運行便削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return schedule.ErrScheduleNotFound
	}
	return nil
}

var _ schedule.Repository = (*ScheduleRepository)(nil)
