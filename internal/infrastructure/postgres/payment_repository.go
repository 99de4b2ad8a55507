package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/transaction"
)

type paymentRow struct {
	TransactionID       string     `db:"transaction_id"`
	LockID              string     `db:"lock_id"`
	Amount              int        `db:"amount"`
	Method              string     `db:"method"`
	Status              string     `db:"status"`
	GatewayPaymentID    *string    `db:"gateway_payment_id"`
	RedirectURL         *string    `db:"redirect_url"`
	PassengerName       string     `db:"passenger_name"`
	PassengerPhone      string     `db:"passenger_phone"`
	NeedsReconciliation bool       `db:"needs_reconciliation"`
	CreatedAt           time.Time  `db:"created_at"`
	CompletedAt         *time.Time `db:"completed_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}

const paymentColumns = `transaction_id, lock_id, amount, method, status, gateway_payment_id, redirect_url, passenger_name, passenger_phone, needs_reconciliation, created_at, completed_at, updated_at`

type PaymentRepository struct{ db *sqlx.DB }

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, attempt *payment.Attempt) error {
	query := `INSERT INTO payment_attempts (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		attempt.TransactionID, attempt.LockID, attempt.Amount, string(attempt.Method), string(attempt.Status),
		attempt.GatewayPaymentID, attempt.RedirectURL, attempt.PassengerName, attempt.PassengerPhone,
		attempt.NeedsReconciliation, attempt.CreatedAt, attempt.CompletedAt, attempt.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return payment.ErrDuplicateTransaction
		}
		return fmt.Errorf("決済試行作成に失敗: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Attempt, error) {
	var row paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payment_attempts WHERE transaction_id = $1`
	if err := r.db.GetContext(ctx, &row, query, transactionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("決済試行取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *PaymentRepository) GetByLockID(ctx context.Context, lockID string) ([]*payment.Attempt, error) {
	var rows []paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payment_attempts WHERE lock_id = $1 ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &rows, query, lockID); err != nil {
		return nil, fmt.Errorf("決済試行一覧取得に失敗: %w", err)
	}
	attempts := make([]*payment.Attempt, len(rows))
	for i, row := range rows {
		attempts[i] = row.toEntity()
	}
	return attempts, nil
}

func (r *PaymentRepository) Update(ctx context.Context, tx transaction.Tx, attempt *payment.Attempt) error {
	query := `UPDATE payment_attempts SET status = $1, gateway_payment_id = $2, redirect_url = $3, needs_reconciliation = $4, completed_at = $5, updated_at = $6 WHERE transaction_id = $7`
	result, err := UnwrapTx(tx).ExecContext(ctx, query,
		string(attempt.Status), attempt.GatewayPaymentID, attempt.RedirectURL,
		attempt.NeedsReconciliation, attempt.CompletedAt, attempt.UpdatedAt, attempt.TransactionID,
	)
	if err != nil {
		return fmt.Errorf("決済試行更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return payment.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) GetStalePending(ctx context.Context, olderThan time.Duration, limit int) ([]*payment.Attempt, error) {
	var rows []paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payment_attempts WHERE status = 'pending' AND created_at < $1 ORDER BY created_at LIMIT $2`
	cutoff := time.Now().Add(-olderThan)
	if err := r.db.SelectContext(ctx, &rows, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("未解決決済取得に失敗: %w", err)
	}
	attempts := make([]*payment.Attempt, len(rows))
	for i, row := range rows {
		attempts[i] = row.toEntity()
	}
	return attempts, nil
}

func (row *paymentRow) toEntity() *payment.Attempt {
	return &payment.Attempt{
		TransactionID: row.TransactionID, LockID: row.LockID, Amount: row.Amount,
		Method: payment.Method(row.Method), Status: payment.Status(row.Status),
		GatewayPaymentID: row.GatewayPaymentID, RedirectURL: row.RedirectURL,
		PassengerName: row.PassengerName, PassengerPhone: row.PassengerPhone,
		NeedsReconciliation: row.NeedsReconciliation,
		CreatedAt:           row.CreatedAt, CompletedAt: row.CompletedAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ payment.Repository = (*PaymentRepository)(nil)
