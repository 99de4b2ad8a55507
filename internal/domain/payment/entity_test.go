package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttempt(t *testing.T) {
	a := NewAttempt("txn-1", "lock-1", 2400, MethodBkash, "Rahim", "01712345678")

	assert.Equal(t, "txn-1", a.TransactionID)
	assert.Equal(t, "lock-1", a.LockID)
	assert.Equal(t, 2400, a.Amount)
	assert.Equal(t, MethodBkash, a.Method)
	assert.Equal(t, StatusPending, a.Status)
	assert.False(t, a.NeedsReconciliation)
	assert.Nil(t, a.CompletedAt)
}

func TestAttempt_Resolve(t *testing.T) {
	t.Run("pendingから成功へ遷移できる", func(t *testing.T) {
		a := NewAttempt("txn-1", "lock-1", 2400, MethodBkash, "Rahim", "01712345678")

		err := a.MarkSuccess()

		require.NoError(t, err)
		assert.Equal(t, StatusSuccess, a.Status)
		assert.NotNil(t, a.CompletedAt)
	})

	t.Run("pendingから失敗へ遷移できる", func(t *testing.T) {
		a := NewAttempt("txn-2", "lock-1", 2400, MethodSSLCommerz, "Rahim", "01712345678")

		err := a.MarkFailed()

		require.NoError(t, err)
		assert.Equal(t, StatusFailed, a.Status)
	})

	t.Run("終端状態からは遷移できない", func(t *testing.T) {
		a := NewAttempt("txn-3", "lock-1", 2400, MethodBkash, "Rahim", "01712345678")
		require.NoError(t, a.MarkSuccess())

		assert.ErrorIs(t, a.MarkFailed(), ErrAlreadyResolved)
		assert.ErrorIs(t, a.MarkExpired(), ErrAlreadyResolved)
		assert.Equal(t, StatusSuccess, a.Status)
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusSuccess.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusExpired.IsTerminal())
}

func TestAttempt_Validate(t *testing.T) {
	tests := []struct {
		name        string
		attempt     *Attempt
		expectedErr error
	}{
		{
			name:        "有効な決済試行",
			attempt:     NewAttempt("txn-1", "lock-1", 2400, MethodBkash, "Rahim", "01712345678"),
			expectedErr: nil,
		},
		{
			name:        "トランザクションIDなし",
			attempt:     NewAttempt("", "lock-1", 2400, MethodBkash, "Rahim", ""),
			expectedErr: ErrTransactionIDRequired,
		},
		{
			name:        "ロックIDなし",
			attempt:     NewAttempt("txn-1", "", 2400, MethodBkash, "Rahim", ""),
			expectedErr: ErrLockIDRequired,
		},
		{
			name:        "金額0",
			attempt:     NewAttempt("txn-1", "lock-1", 0, MethodBkash, "Rahim", ""),
			expectedErr: ErrInvalidAmount,
		},
		{
			name:        "不正な決済手段",
			attempt:     NewAttempt("txn-1", "lock-1", 2400, Method("paypal"), "Rahim", ""),
			expectedErr: ErrInvalidMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.attempt.Validate()
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}
