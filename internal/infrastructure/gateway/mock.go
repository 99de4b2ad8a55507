package gateway

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
)

// MockGateway は外部プロバイダなしで動作する決済ゲートウェイ
// 開発・テスト環境用で、providerRef が "FAIL" で始まる場合のみ失敗を返す
type MockGateway struct {
	mu       sync.Mutex
	statuses map[string]payment.GatewayStatus
}

// NewMockGateway はモックゲートウェイを作成する
func NewMockGateway() *MockGateway {
	return &MockGateway{statuses: make(map[string]payment.GatewayStatus)}
}

// CreatePayment は決済を作成し、PENDING 状態で登録する
func (g *MockGateway) CreatePayment(_ context.Context, amount int, _ map[string]string) (*payment.CreatePaymentResult, error) {
	if amount <= 0 {
		return nil, payment.ErrInvalidAmount
	}
	id := "MOCK-" + uuid.New().String()
	g.mu.Lock()
	g.statuses[id] = payment.GatewayPending
	g.mu.Unlock()
	return &payment.CreatePaymentResult{
		GatewayPaymentID: id,
		RedirectURL:      fmt.Sprintf("https://mock-gateway.local/checkout/%s", id),
	}, nil
}

// ExecutePayment は決済を終端状態に確定する
// 既に確定済みの場合は同じ状態を返す（冪等）
func (g *MockGateway) ExecutePayment(_ context.Context, gatewayPaymentID, providerRef string) (payment.GatewayStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.statuses[gatewayPaymentID]
	if !ok {
		return payment.GatewayFailed, payment.ErrPaymentNotFound
	}
	if status != payment.GatewayPending {
		return status, nil
	}
	if strings.HasPrefix(providerRef, "FAIL") {
		g.statuses[gatewayPaymentID] = payment.GatewayFailed
		return payment.GatewayFailed, nil
	}
	g.statuses[gatewayPaymentID] = payment.GatewaySuccess
	return payment.GatewaySuccess, nil
}

// QueryStatus は決済状態を照会する
func (g *MockGateway) QueryStatus(_ context.Context, gatewayPaymentID string) (payment.GatewayStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.statuses[gatewayPaymentID]
	if !ok {
		return payment.GatewayFailed, payment.ErrPaymentNotFound
	}
	return status, nil
}

var _ payment.Gateway = (*MockGateway)(nil)
