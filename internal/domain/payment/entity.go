package payment

import "time"

// Status は決済試行の状態を表す
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusExpired Status = "expired"
)

// IsTerminal は終端状態かを返す
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusExpired
}

// Method は決済手段を表す
type Method string

const (
	MethodBkash      Method = "bkash"
	MethodSSLCommerz Method = "sslcommerz"
	MethodCash       Method = "cash"
	MethodOther      Method = "other"
)

// Attempt は座席ロックに対する決済試行を表す
// 状態遷移は pending → {success, failed, expired} の一方向のみで、
// 終端状態に達した後は変更されない
type Attempt struct {
	TransactionID    string
	LockID           string
	Amount           int
	Method           Method
	Status           Status
	GatewayPaymentID *string
	RedirectURL      *string
	PassengerName    string
	PassengerPhone   string
	// NeedsReconciliation は決済成功後に座席が失われた場合に立つ
	// 返金・照合が必要であることを運用者に知らせるフラグ
	NeedsReconciliation bool
	CreatedAt           time.Time
	CompletedAt         *time.Time
	UpdatedAt           time.Time
}

// NewAttempt は新しい決済試行を作成する
func NewAttempt(transactionID, lockID string, amount int, method Method, passengerName, passengerPhone string) *Attempt {
	now := time.Now()
	return &Attempt{
		TransactionID:  transactionID,
		LockID:         lockID,
		Amount:         amount,
		Method:         method,
		Status:         StatusPending,
		PassengerName:  passengerName,
		PassengerPhone: passengerPhone,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsPending は決済が未解決かを返す
func (a *Attempt) IsPending() bool {
	return a.Status == StatusPending
}

// MarkSuccess は決済を成功で確定する
func (a *Attempt) MarkSuccess() error {
	return a.resolve(StatusSuccess)
}

// MarkFailed は決済を失敗で確定する
func (a *Attempt) MarkFailed() error {
	return a.resolve(StatusFailed)
}

// MarkExpired は決済を期限切れで確定する（スイープ用）
func (a *Attempt) MarkExpired() error {
	return a.resolve(StatusExpired)
}

func (a *Attempt) resolve(to Status) error {
	if a.Status != StatusPending {
		return ErrAlreadyResolved
	}
	now := time.Now()
	a.Status = to
	a.CompletedAt = &now
	a.UpdatedAt = now
	return nil
}

// FlagReconciliation は要照合フラグを立てる
func (a *Attempt) FlagReconciliation() {
	a.NeedsReconciliation = true
	a.UpdatedAt = time.Now()
}

// Validate は決済試行の検証を行う
func (a *Attempt) Validate() error {
	if a.TransactionID == "" {
		return ErrTransactionIDRequired
	}
	if a.LockID == "" {
		return ErrLockIDRequired
	}
	if a.Amount <= 0 {
		return ErrInvalidAmount
	}
	switch a.Method {
	case MethodBkash, MethodSSLCommerz, MethodCash, MethodOther:
	default:
		return ErrInvalidMethod
	}
	return nil
}
