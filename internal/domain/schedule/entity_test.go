package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSchedule(t *testing.T) {
	departAt := time.Now().Add(24 * time.Hour)
	arriveAt := departAt.Add(6 * time.Hour)

	s := NewSchedule("Dhaka - Chattogram", "Dhaka", "Chattogram", "KT-101", departAt, arriveAt, 40)

	assert.Equal(t, "Dhaka - Chattogram", s.RouteName)
	assert.Equal(t, "Dhaka", s.Origin)
	assert.Equal(t, "Chattogram", s.Destination)
	assert.Equal(t, "KT-101", s.BusNumber)
	assert.Equal(t, 40, s.TotalSeats)
	assert.Equal(t, 0, s.Version)
}

func TestSchedule_IsBookingOpen(t *testing.T) {
	t.Run("出発前は予約受付中", func(t *testing.T) {
		s := &Schedule{DepartAt: time.Now().Add(time.Hour)}
		assert.True(t, s.IsBookingOpen())
	})

	t.Run("出発後は予約不可", func(t *testing.T) {
		s := &Schedule{DepartAt: time.Now().Add(-time.Hour)}
		assert.False(t, s.IsBookingOpen())
	})
}

func TestSchedule_Validate(t *testing.T) {
	departAt := time.Now().Add(24 * time.Hour)
	arriveAt := departAt.Add(6 * time.Hour)

	tests := []struct {
		name        string
		schedule    *Schedule
		expectedErr error
	}{
		{
			name:        "有効な運行便",
			schedule:    NewSchedule("Dhaka - Sylhet", "Dhaka", "Sylhet", "KT-202", departAt, arriveAt, 36),
			expectedErr: nil,
		},
		{
			name:        "路線名なし",
			schedule:    NewSchedule("", "Dhaka", "Sylhet", "KT-202", departAt, arriveAt, 36),
			expectedErr: ErrRouteNameRequired,
		},
		{
			name:        "出発地なし",
			schedule:    NewSchedule("Dhaka - Sylhet", "", "Sylhet", "KT-202", departAt, arriveAt, 36),
			expectedErr: ErrOriginDestinationRequired,
		},
		{
			name:        "座席数0",
			schedule:    NewSchedule("Dhaka - Sylhet", "Dhaka", "Sylhet", "KT-202", departAt, arriveAt, 0),
			expectedErr: ErrInvalidTotalSeats,
		},
		{
			name:        "到着が出発より前",
			schedule:    NewSchedule("Dhaka - Sylhet", "Dhaka", "Sylhet", "KT-202", departAt, departAt.Add(-time.Hour), 36),
			expectedErr: ErrInvalidScheduleTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}
