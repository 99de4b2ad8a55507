package gateway

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/config"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
)

// BkashGateway は bKash チェックアウトAPIへのアダプタ
type BkashGateway struct {
	baseURL string
	client  *http.Client
}

// NewBkashGateway は bKash ゲートウェイを作成する
func NewBkashGateway(cfg *config.GatewayConfig) *BkashGateway {
	return &BkashGateway{
		baseURL: cfg.BkashBaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type bkashCreateRequest struct {
	Amount   string            `json:"amount"`
	Currency string            `json:"currency"`
	Intent   string            `json:"intent"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type bkashCreateResponse struct {
	PaymentID string `json:"paymentID"`
	BkashURL  string `json:"bkashURL"`
}

type bkashExecuteRequest struct {
	PaymentID   string `json:"paymentID"`
	ProviderRef string `json:"payerReference,omitempty"`
}

type bkashStatusResponse struct {
	PaymentID         string `json:"paymentID"`
	TransactionStatus string `json:"transactionStatus"`
}

func (g *BkashGateway) CreatePayment(ctx context.Context, amount int, metadata map[string]string) (*payment.CreatePaymentResult, error) {
	start := time.Now()
	var resp bkashCreateResponse
	_, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/checkout/create", &bkashCreateRequest{
		Amount:   strconv.Itoa(amount),
		Currency: "BDT",
		Intent:   "sale",
		Metadata: metadata,
	}, &resp)
	observe("bkash", "create", start, err)
	if err != nil {
		return nil, err
	}
	return &payment.CreatePaymentResult{
		GatewayPaymentID: resp.PaymentID,
		RedirectURL:      resp.BkashURL,
	}, nil
}

func (g *BkashGateway) ExecutePayment(ctx context.Context, gatewayPaymentID, providerRef string) (payment.GatewayStatus, error) {
	start := time.Now()
	var resp bkashStatusResponse
	_, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/checkout/execute", &bkashExecuteRequest{
		PaymentID:   gatewayPaymentID,
		ProviderRef: providerRef,
	}, &resp)
	observe("bkash", "execute", start, err)
	if err != nil {
		return payment.GatewayPending, err
	}
	return translateBkashStatus(resp.TransactionStatus), nil
}

func (g *BkashGateway) QueryStatus(ctx context.Context, gatewayPaymentID string) (payment.GatewayStatus, error) {
	start := time.Now()
	var resp bkashStatusResponse
	_, err := doJSON(ctx, g.client, http.MethodGet, g.baseURL+"/checkout/payment/status/"+gatewayPaymentID, nil, &resp)
	observe("bkash", "query", start, err)
	if err != nil {
		return payment.GatewayPending, err
	}
	return translateBkashStatus(resp.TransactionStatus), nil
}

// translateBkashStatus は bKash の状態文字列を共通の状態に変換する
// 未知の状態は未解決として扱い、ポーリング継続の対象にする
func translateBkashStatus(s string) payment.GatewayStatus {
	switch s {
	case "Completed":
		return payment.GatewaySuccess
	case "Failed", "Cancelled":
		return payment.GatewayFailed
	default:
		return payment.GatewayPending
	}
}

var _ payment.Gateway = (*BkashGateway)(nil)
