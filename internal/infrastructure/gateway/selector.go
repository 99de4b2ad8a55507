package gateway

import (
	"github.com/sanosuguru/go-bus-ticket-booking/internal/config"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
)

// Selector は決済手段に応じたゲートウェイを返す
type Selector struct {
	gateways map[payment.Method]payment.Gateway
	fallback payment.Gateway
}

// NewSelector は設定からゲートウェイ一式を構築する
// ベースURLが未設定のプロバイダはモックで代替する
func NewSelector(cfg *config.GatewayConfig) *Selector {
	mock := NewMockGateway()
	s := &Selector{
		gateways: make(map[payment.Method]payment.Gateway),
		fallback: mock,
	}
	if cfg.BkashBaseURL != "" {
		s.gateways[payment.MethodBkash] = NewBkashGateway(cfg)
	}
	if cfg.SSLCommerzBaseURL != "" {
		s.gateways[payment.MethodSSLCommerz] = NewSSLCommerzGateway(cfg)
	}
	return s
}

// ForMethod は決済手段に対応するゲートウェイを返す
func (s *Selector) ForMethod(m payment.Method) payment.Gateway {
	if gw, ok := s.gateways[m]; ok {
		return gw
	}
	return s.fallback
}

// SelectorInterface はゲートウェイ選択のインターフェース
type SelectorInterface interface {
	ForMethod(m payment.Method) payment.Gateway
}

var _ SelectorInterface = (*Selector)(nil)
