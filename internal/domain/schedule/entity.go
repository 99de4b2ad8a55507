package schedule

import "time"

// Schedule は運行便（バスのスケジュール）エンティティを表す
type Schedule struct {
	ID          string
	RouteName   string
	Origin      string
	Destination string
	BusNumber   string
	DepartAt    time.Time
	ArriveAt    time.Time
	TotalSeats  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int // 楽観的ロック用
}

// NewSchedule は新しい運行便を作成する
func NewSchedule(routeName, origin, destination, busNumber string, departAt, arriveAt time.Time, totalSeats int) *Schedule {
	now := time.Now()
	return &Schedule{
		RouteName:   routeName,
		Origin:      origin,
		Destination: destination,
		BusNumber:   busNumber,
		DepartAt:    departAt,
		ArriveAt:    arriveAt,
		TotalSeats:  totalSeats,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     0,
	}
}

// IsBookingOpen は予約受付中かを返す（出発前のみ予約可能）
func (s *Schedule) IsBookingOpen() bool {
	return time.Now().Before(s.DepartAt)
}

// Validate は運行便の検証を行う
func (s *Schedule) Validate() error {
	if s.RouteName == "" {
		return ErrRouteNameRequired
	}
	if s.Origin == "" || s.Destination == "" {
		return ErrOriginDestinationRequired
	}
	if s.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if s.ArriveAt.Before(s.DepartAt) {
		return ErrInvalidScheduleTime
	}
	return nil
}
