package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/booking"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seat"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
)

func pendingAttempt(transactionID, lockID string, amount int) *payment.Attempt {
	attempt := payment.NewAttempt(transactionID, lockID, amount, payment.MethodBkash, "Rahim Uddin", "+8801712345678")
	gatewayID := "GW-" + transactionID
	attempt.GatewayPaymentID = &gatewayID
	return attempt
}

func scheduleSeats(scheduleID string) []*seat.Seat {
	return []*seat.Seat{
		{ID: "seat-1", ScheduleID: scheduleID, Status: seat.StatusLocked, Price: 850},
		{ID: "seat-2", ScheduleID: scheduleID, Status: seat.StatusLocked, Price: 850},
		{ID: "seat-3", ScheduleID: scheduleID, Status: seat.StatusAvailable, Price: 850},
	}
}

// === InitiatePayment ===

func TestBookingService_InitiatePayment_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1", "seat-2"})
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)
	deps.seatRepo.On("GetByScheduleID", ctx, "schedule-1").Return(scheduleSeats("schedule-1"), nil)

	deps.gateway.On("CreatePayment", ctx, 1700, mock.AnythingOfType("map[string]string")).
		Return(&payment.CreatePaymentResult{
			GatewayPaymentID: "GW-abc",
			RedirectURL:      "https://checkout.example/GW-abc",
		}, nil)
	deps.paymentRepo.On("Create", ctx, mock.AnythingOfType("*payment.Attempt")).Return(nil)

	// Execute
	attempt, err := deps.bookingService.InitiatePayment(ctx, InitiatePaymentInput{
		LockID:         "lock-1",
		OwnerToken:     "owner-1",
		Method:         payment.MethodBkash,
		PassengerName:  "Rahim Uddin",
		PassengerPhone: "+8801712345678",
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, 1700, attempt.Amount)
	assert.Equal(t, payment.StatusPending, attempt.Status)
	assert.NotEmpty(t, attempt.TransactionID)
	require.NotNil(t, attempt.GatewayPaymentID)
	assert.Equal(t, "GW-abc", *attempt.GatewayPaymentID)
	require.NotNil(t, attempt.RedirectURL)

	deps.paymentRepo.AssertExpectations(t)
	deps.gateway.AssertExpectations(t)
}

func TestBookingService_InitiatePayment_LockExpired(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1"})
	lock.ExpiresAt = time.Now().Add(-1 * time.Minute)
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)

	// Execute
	attempt, err := deps.bookingService.InitiatePayment(ctx, InitiatePaymentInput{
		LockID:         "lock-1",
		OwnerToken:     "owner-1",
		Method:         payment.MethodBkash,
		PassengerName:  "Rahim Uddin",
		PassengerPhone: "+8801712345678",
	})

	// Assert
	require.Error(t, err)
	assert.Nil(t, attempt)
	assert.True(t, errors.Is(err, seatlock.ErrLockExpired))
	deps.gateway.AssertNotCalled(t, "CreatePayment")
}

func TestBookingService_InitiatePayment_WrongOwner(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1"})
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)

	// Execute
	attempt, err := deps.bookingService.InitiatePayment(ctx, InitiatePaymentInput{
		LockID:         "lock-1",
		OwnerToken:     "someone-else",
		Method:         payment.MethodBkash,
		PassengerName:  "Rahim Uddin",
		PassengerPhone: "+8801712345678",
	})

	// Assert
	require.Error(t, err)
	assert.Nil(t, attempt)
	assert.True(t, errors.Is(err, seatlock.ErrNotLockOwner))
}

func TestBookingService_InitiatePayment_GatewayUnavailable(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1"})
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)
	deps.seatRepo.On("GetByScheduleID", ctx, "schedule-1").Return(scheduleSeats("schedule-1"), nil)
	deps.gateway.On("CreatePayment", ctx, 850, mock.AnythingOfType("map[string]string")).
		Return(nil, payment.ErrGatewayUnavailable)

	// Execute
	attempt, err := deps.bookingService.InitiatePayment(ctx, InitiatePaymentInput{
		LockID:         "lock-1",
		OwnerToken:     "owner-1",
		Method:         payment.MethodBkash,
		PassengerName:  "Rahim Uddin",
		PassengerPhone: "+8801712345678",
	})

	// Assert
	require.Error(t, err)
	assert.Nil(t, attempt)
	assert.True(t, errors.Is(err, payment.ErrGatewayUnavailable))
	// Nothing should be persisted so the caller can retry
	deps.paymentRepo.AssertNotCalled(t, "Create")
}

// === ConfirmPayment ===

func TestBookingService_ConfirmPayment_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1", "seat-2"})

	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.gateway.On("ExecutePayment", ctx, "GW-txn-1", "ref-1").Return(payment.GatewaySuccess, nil)
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.lockRepo.On("UpdateStatus", ctx, deps.tx, "lock-1", seatlock.StatusHeld, seatlock.StatusPromoted).
		Return(true, nil)
	deps.seatRepo.On("SellSeats", ctx, deps.tx, lock.SeatIDs, "lock-1").Return(nil)
	deps.bookingRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*booking.Booking")).
		Run(func(args mock.Arguments) {
			args.Get(2).(*booking.Booking).ID = "booking-1"
		}).Return(nil)
	deps.paymentRepo.On("Update", ctx, deps.tx, attempt).Return(nil)
	deps.cache.On("Invalidate", ctx, "schedule-1").Return(nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{
		TransactionID: "txn-1",
		ProviderRef:   "ref-1",
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "booking-1", b.ID)
	assert.Equal(t, booking.StatusConfirmed, b.Status)
	assert.Equal(t, []string{"seat-1", "seat-2"}, b.SeatIDs)
	assert.Equal(t, payment.StatusSuccess, attempt.Status)
	assert.False(t, attempt.NeedsReconciliation)

	deps.lockRepo.AssertExpectations(t)
	deps.seatRepo.AssertExpectations(t)
	deps.bookingRepo.AssertExpectations(t)
	deps.paymentRepo.AssertExpectations(t)
}

func TestBookingService_ConfirmPayment_Idempotent(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// Attempt already resolved as success
	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	require.NoError(t, attempt.MarkSuccess())
	existing := &booking.Booking{ID: "booking-1", TransactionID: "txn-1", Status: booking.StatusConfirmed}

	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.bookingRepo.On("GetByTransactionID", ctx, "txn-1").Return(existing, nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{TransactionID: "txn-1"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "booking-1", b.ID)
	// Gateway must not be called again
	deps.gateway.AssertNotCalled(t, "ExecutePayment")
}

func TestBookingService_ConfirmPayment_PaymentFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1", "seat-2"})
	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.gateway.On("ExecutePayment", ctx, "GW-txn-1", "ref-1").Return(payment.GatewayFailed, nil)
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.paymentRepo.On("Update", ctx, deps.tx, attempt).Return(nil)

	// The failed payment releases the lock and frees the seats
	deps.lockRepo.On("UpdateStatus", ctx, deps.tx, "lock-1", seatlock.StatusHeld, seatlock.StatusReleased).
		Return(true, nil)
	deps.seatRepo.On("ReleaseSeats", ctx, deps.tx, lock.SeatIDs, "lock-1").Return(nil)
	deps.cache.On("Invalidate", ctx, "schedule-1").Return(nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{
		TransactionID: "txn-1",
		ProviderRef:   "ref-1",
	})

	// Assert
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, payment.ErrPaymentFailed))
	assert.Equal(t, payment.StatusFailed, attempt.Status)
	deps.lockRepo.AssertExpectations(t)
	deps.seatRepo.AssertExpectations(t)
}

func TestBookingService_ConfirmPayment_Pending(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.gateway.On("ExecutePayment", ctx, "GW-txn-1", "").Return(payment.GatewayPending, nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{TransactionID: "txn-1"})

	// Assert
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, payment.ErrPaymentPending))
	assert.Equal(t, payment.StatusPending, attempt.Status)
}

func TestBookingService_ConfirmPayment_GatewayUnavailable(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.gateway.On("ExecutePayment", ctx, "GW-txn-1", "").
		Return(payment.GatewayPending, payment.ErrGatewayUnavailable)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{TransactionID: "txn-1"})

	// Assert
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, payment.ErrGatewayUnavailable))
	// The attempt stays pending for retry
	assert.Equal(t, payment.StatusPending, attempt.Status)
	deps.paymentRepo.AssertNotCalled(t, "Update")
}

func TestBookingService_ConfirmPayment_SeatsNoLongerHeld(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1"})

	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.gateway.On("ExecutePayment", ctx, "GW-txn-1", "ref-1").Return(payment.GatewaySuccess, nil)
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)

	// The sweep won the race and expired the lock first
	deps.lockRepo.On("UpdateStatus", ctx, deps.tx, "lock-1", seatlock.StatusHeld, seatlock.StatusPromoted).
		Return(false, nil)
	deps.lockRepo.On("GetStatus", ctx, deps.tx, "lock-1").Return(seatlock.StatusExpired, nil)
	deps.paymentRepo.On("Update", ctx, deps.tx, attempt).Return(nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{
		TransactionID: "txn-1",
		ProviderRef:   "ref-1",
	})

	// Assert
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, booking.ErrSeatsNoLongerHeld))
	// The payment succeeded and must be flagged for refund reconciliation
	assert.Equal(t, payment.StatusSuccess, attempt.Status)
	assert.True(t, attempt.NeedsReconciliation)
	deps.seatRepo.AssertNotCalled(t, "SellSeats")
	deps.bookingRepo.AssertNotCalled(t, "Create")
}

func TestBookingService_ConfirmPayment_ConcurrentConfirmLoser(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// Callback and client poll both confirm the same transaction.
	// The loser of the held→promoted CAS must return the winner's booking,
	// not flag the payment for reconciliation.
	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	lock := heldLock("lock-1", "schedule-1", "owner-1", []string{"seat-1", "seat-2"})
	existing := &booking.Booking{ID: "booking-1", TransactionID: "txn-1", Status: booking.StatusConfirmed}

	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)
	deps.gateway.On("ExecutePayment", ctx, "GW-txn-1", "ref-1").Return(payment.GatewaySuccess, nil)
	deps.lockRepo.On("GetByID", ctx, "lock-1").Return(lock, nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)

	// The concurrent confirm won: the lock is already promoted
	deps.lockRepo.On("UpdateStatus", ctx, deps.tx, "lock-1", seatlock.StatusHeld, seatlock.StatusPromoted).
		Return(false, nil)
	deps.lockRepo.On("GetStatus", ctx, deps.tx, "lock-1").Return(seatlock.StatusPromoted, nil)
	deps.bookingRepo.On("GetByTransactionID", ctx, "txn-1").Return(existing, nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{
		TransactionID: "txn-1",
		ProviderRef:   "ref-1",
	})

	// Assert: same outcome as the winner, no reconciliation flag
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "booking-1", b.ID)
	deps.paymentRepo.AssertNotCalled(t, "Update")
	deps.bookingRepo.AssertNotCalled(t, "Create")
	deps.tx.AssertNotCalled(t, "Commit")
}

func TestBookingService_ConfirmPayment_SeatsNoLongerHeld_Repeated(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// Already resolved with the reconciliation flag
	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	require.NoError(t, attempt.MarkSuccess())
	attempt.FlagReconciliation()
	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)

	// Execute
	b, err := deps.bookingService.ConfirmPayment(ctx, ConfirmPaymentInput{TransactionID: "txn-1"})

	// Assert: repeated calls report the same outcome
	require.Error(t, err)
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, booking.ErrSeatsNoLongerHeld))
	deps.gateway.AssertNotCalled(t, "ExecutePayment")
}

// === WaitForResolution ===

func TestBookingService_WaitForResolution(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	deps.paymentRepo.On("GetByTransactionID", ctx, "txn-1").Return(attempt, nil)

	// Pending on the first poll, resolved on the second
	deps.gateway.On("QueryStatus", ctx, "GW-txn-1").Return(payment.GatewayPending, nil).Once()
	deps.gateway.On("QueryStatus", ctx, "GW-txn-1").Return(payment.GatewaySuccess, nil).Once()

	// Execute
	status, err := deps.bookingService.WaitForResolution(ctx, "txn-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, payment.GatewaySuccess, status)
	deps.gateway.AssertExpectations(t)
}

func TestBookingService_WaitForResolution_Timeout(t *testing.T) {
	deps := newTestDeps()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	attempt := pendingAttempt("txn-1", "lock-1", 1700)
	deps.paymentRepo.On("GetByTransactionID", mock.Anything, "txn-1").Return(attempt, nil)
	deps.gateway.On("QueryStatus", mock.Anything, "GW-txn-1").Return(payment.GatewayPending, nil)

	// Execute
	_, err := deps.bookingService.WaitForResolution(ctx, "txn-1")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// === ExpireStalePayments ===

func TestBookingService_ExpireStalePayments(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	// stale1 is abandoned, stale2 succeeded on the gateway side
	stale1 := pendingAttempt("txn-1", "lock-1", 850)
	stale2 := pendingAttempt("txn-2", "lock-2", 850)
	deps.paymentRepo.On("GetStalePending", ctx, 30*time.Minute, 100).
		Return([]*payment.Attempt{stale1, stale2}, nil)

	deps.gateway.On("QueryStatus", ctx, "GW-txn-1").Return(payment.GatewayFailed, nil)
	deps.gateway.On("QueryStatus", ctx, "GW-txn-2").Return(payment.GatewaySuccess, nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.paymentRepo.On("Update", ctx, deps.tx, stale1).Return(nil)

	// Execute
	expired, err := deps.bookingService.ExpireStalePayments(ctx, 30*time.Minute, 0)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, payment.StatusExpired, stale1.Status)
	// Gateway-side success is left for ConfirmPayment to settle
	assert.Equal(t, payment.StatusPending, stale2.Status)
}

// === CancelBooking ===

func TestBookingService_CancelBooking_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	b := &booking.Booking{
		ID:            "booking-1",
		ScheduleID:    "schedule-1",
		SeatIDs:       []string{"seat-1", "seat-2"},
		TransactionID: "txn-1",
		Status:        booking.StatusConfirmed,
	}
	deps.bookingRepo.On("GetByID", ctx, "booking-1").Return(b, nil)

	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.bookingRepo.On("Update", ctx, deps.tx, b).Return(nil)
	deps.bookingRepo.On("ReleaseSeats", ctx, deps.tx, "booking-1").Return(nil)
	deps.seatRepo.On("ReleaseSoldSeats", ctx, deps.tx, b.SeatIDs).Return(nil)
	deps.cache.On("Invalidate", ctx, "schedule-1").Return(nil)

	// Execute
	result, err := deps.bookingService.CancelBooking(ctx, "booking-1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, result.Status)
	require.NotNil(t, result.CancelledAt)
	deps.seatRepo.AssertExpectations(t)
}

func TestBookingService_CancelBooking_AlreadyCancelled(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	b := &booking.Booking{ID: "booking-1", Status: booking.StatusCancelled}
	deps.bookingRepo.On("GetByID", ctx, "booking-1").Return(b, nil)

	// Execute
	result, err := deps.bookingService.CancelBooking(ctx, "booking-1")

	// Assert
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, booking.ErrBookingAlreadyCancelled))
	deps.txManager.AssertNotCalled(t, "Begin")
}
