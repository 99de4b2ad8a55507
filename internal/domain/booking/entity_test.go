package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBooking(t *testing.T) {
	b := NewBooking("schedule-1", "txn-1", "Karim", "01898765432", []string{"seat-1", "seat-2"}, 2400)

	assert.Equal(t, "schedule-1", b.ScheduleID)
	assert.Equal(t, "txn-1", b.TransactionID)
	assert.Equal(t, []string{"seat-1", "seat-2"}, b.SeatIDs)
	assert.Equal(t, 2400, b.Amount)
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Nil(t, b.CancelledAt)
}

func TestBooking_Cancel(t *testing.T) {
	t.Run("確定済みの予約をキャンセルできる", func(t *testing.T) {
		b := NewBooking("schedule-1", "txn-1", "Karim", "01898765432", []string{"seat-1"}, 1200)

		err := b.Cancel()

		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, b.Status)
		assert.NotNil(t, b.CancelledAt)
	})

	t.Run("キャンセル済みの予約は再キャンセルできない", func(t *testing.T) {
		b := NewBooking("schedule-1", "txn-1", "Karim", "01898765432", []string{"seat-1"}, 1200)
		require.NoError(t, b.Cancel())

		err := b.Cancel()

		assert.ErrorIs(t, err, ErrBookingAlreadyCancelled)
	})
}

func TestBooking_Validate(t *testing.T) {
	tests := []struct {
		name        string
		booking     *Booking
		expectedErr error
	}{
		{
			name:        "有効な予約",
			booking:     NewBooking("schedule-1", "txn-1", "Karim", "01898765432", []string{"seat-1"}, 1200),
			expectedErr: nil,
		},
		{
			name:        "運行便IDなし",
			booking:     NewBooking("", "txn-1", "Karim", "", []string{"seat-1"}, 1200),
			expectedErr: ErrScheduleIDRequired,
		},
		{
			name:        "トランザクションIDなし",
			booking:     NewBooking("schedule-1", "", "Karim", "", []string{"seat-1"}, 1200),
			expectedErr: ErrTransactionIDRequired,
		},
		{
			name:        "座席IDなし",
			booking:     NewBooking("schedule-1", "txn-1", "Karim", "", nil, 1200),
			expectedErr: ErrSeatIDsRequired,
		},
		{
			name:        "乗客名なし",
			booking:     NewBooking("schedule-1", "txn-1", "", "", []string{"seat-1"}, 1200),
			expectedErr: ErrPassengerNameRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.booking.Validate()
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}
