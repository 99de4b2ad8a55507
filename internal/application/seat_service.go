package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/schedule"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	redisinfra "github.com/sanosuguru/go-bus-ticket-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/logger"
)

const (
	availabilityCacheTTL = 30 * time.Second
)

type SeatService struct {
	seatRepo     seat.Repository
	scheduleRepo schedule.Repository
	cache        redisinfra.AvailabilityCacheInterface
}

func NewSeatService(sr seat.Repository, scr schedule.Repository, cache redisinfra.AvailabilityCacheInterface) *SeatService {
	return &SeatService{seatRepo: sr, scheduleRepo: scr, cache: cache}
}

type CreateSeatInput struct {
	ScheduleID string
	SeatNumber string
	Price      int
}

func (s *SeatService) CreateSeat(ctx context.Context, input CreateSeatInput) (*seat.Seat, error) {
	if _, err := s.scheduleRepo.GetByID(ctx, input.ScheduleID); err != nil {
		return nil, fmt.Errorf("運行便取得に失敗: %w", err)
	}
	se := seat.NewSeat(input.ScheduleID, input.SeatNumber, input.Price)
	if err := se.Validate(); err != nil {
		return nil, err
	}
	if err := s.seatRepo.Create(ctx, se); err != nil {
		return nil, err
	}
	return se, nil
}

type CreateBulkSeatsInput struct {
	ScheduleID string
	Prefix     string
	Count      int
	Price      int
}

func (s *SeatService) CreateBulkSeats(ctx context.Context, input CreateBulkSeatsInput) ([]*seat.Seat, error) {
	if _, err := s.scheduleRepo.GetByID(ctx, input.ScheduleID); err != nil {
		return nil, fmt.Errorf("運行便取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, 0, input.Count)
	for i := 1; i <= input.Count; i++ {
		seatNumber := fmt.Sprintf("%s-%d", input.Prefix, i)
		se := seat.NewSeat(input.ScheduleID, seatNumber, input.Price)
		if err := se.Validate(); err != nil {
			return nil, err
		}
		seats = append(seats, se)
	}
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (s *SeatService) GetSeat(ctx context.Context, id string) (*seat.Seat, error) {
	return s.seatRepo.GetByID(ctx, id)
}

func (s *SeatService) GetSeatsBySchedule(ctx context.Context, scheduleID string) ([]*seat.Seat, error) {
	return s.seatRepo.GetByScheduleID(ctx, scheduleID)
}

func (s *SeatService) GetAvailableSeatsBySchedule(ctx context.Context, scheduleID string) ([]*seat.Seat, error) {
	return s.seatRepo.GetAvailableByScheduleID(ctx, scheduleID)
}

func (s *SeatService) CountAvailableSeats(ctx context.Context, scheduleID string) (int, error) {
	// キャッシュから取得を試みる
	if s.cache != nil {
		count, err := s.cache.GetAvailableCount(ctx, scheduleID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("schedule_id", scheduleID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	// DBから取得
	count, err := s.seatRepo.CountAvailableByScheduleID(ctx, scheduleID)
	if err != nil {
		return 0, err
	}

	// キャッシュに保存
	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableCount(ctx, scheduleID, count, availabilityCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}

	return count, nil
}
