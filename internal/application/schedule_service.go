package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
)

type ScheduleService struct {
	scheduleRepo schedule.Repository
}

func NewScheduleService(scheduleRepo schedule.Repository) *ScheduleService {
	return &ScheduleService{scheduleRepo: scheduleRepo}
}

type CreateScheduleInput struct {
	RouteName   string
	Origin      string
	Destination string
	BusNumber   string
	DepartAt    time.Time
	ArriveAt    time.Time
	TotalSeats  int
}

func (s *ScheduleService) CreateSchedule(ctx context.Context, input CreateScheduleInput) (*schedule.Schedule, error) {
	sc := schedule.NewSchedule(input.RouteName, input.Origin, input.Destination, input.BusNumber, input.DepartAt, input.ArriveAt, input.TotalSeats)
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.scheduleRepo.Create(ctx, sc); err != nil {
		return nil, fmt.Errorf("運行便作成に失敗しました: %w", err)
	}
	return sc, nil
}

func (s *ScheduleService) GetSchedule(ctx context.Context, id string) (*schedule.Schedule, error) {
	return s.scheduleRepo.GetByID(ctx, id)
}

func (s *ScheduleService) ListSchedules(ctx context.Context, limit, offset int) ([]*schedule.Schedule, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.scheduleRepo.List(ctx, limit, offset)
}

type UpdateScheduleInput struct {
	ID          string
	RouteName   string
	Origin      string
	Destination string
	BusNumber   string
	DepartAt    time.Time
	ArriveAt    time.Time
	TotalSeats  int
}

func (s *ScheduleService) UpdateSchedule(ctx context.Context, input UpdateScheduleInput) (*schedule.Schedule, error) {
	sc, err := s.scheduleRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	sc.RouteName = input.RouteName
	sc.Origin = input.Origin
	sc.Destination = input.Destination
	sc.BusNumber = input.BusNumber
	sc.DepartAt = input.DepartAt
	sc.ArriveAt = input.ArriveAt
	sc.TotalSeats = input.TotalSeats
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.scheduleRepo.Update(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

func (s *ScheduleService) DeleteSchedule(ctx context.Context, id string) error {
	return s.scheduleRepo.Delete(ctx, id)
}
