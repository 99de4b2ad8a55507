package payment

import "context"

// GatewayStatus はゲートウェイが報告する決済状態
type GatewayStatus string

const (
	GatewaySuccess GatewayStatus = "SUCCESS"
	GatewayFailed  GatewayStatus = "FAILED"
	GatewayPending GatewayStatus = "PENDING"
)

// CreatePaymentResult は決済作成の結果
type CreatePaymentResult struct {
	// GatewayPaymentID はプロバイダ側の決済参照ID
	GatewayPaymentID string
	// RedirectURL は利用者を誘導するチェックアウトURL（プロバイダによっては空）
	RedirectURL string
}

// Gateway は外部決済プロバイダ（bKash / SSLCommerz / モック）へのポート
// 実装はプロバイダごとに1つ用意する
type Gateway interface {
	// CreatePayment はプロバイダに決済を作成し、参照IDを発行する
	// 座席・ロックの状態は変更しない
	CreatePayment(ctx context.Context, amount int, metadata map[string]string) (*CreatePaymentResult, error)

	// ExecutePayment は利用者の操作完了後に決済を実行する
	// 同じ決済に対して複数回呼んでも安全で、初回確定後は同じ終端状態を返す
	ExecutePayment(ctx context.Context, gatewayPaymentID, providerRef string) (GatewayStatus, error)

	// QueryStatus は決済状態を照会する（読み取り専用、ポーリング用）
	QueryStatus(ctx context.Context, gatewayPaymentID string) (GatewayStatus, error)
}
