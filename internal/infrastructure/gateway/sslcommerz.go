package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/config"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
)

// SSLCommerzGateway は SSLCommerz セッションAPIへのアダプタ
type SSLCommerzGateway struct {
	baseURL       string
	storeID       string
	storePassword string
	client        *http.Client
}

// NewSSLCommerzGateway は SSLCommerz ゲートウェイを作成する
func NewSSLCommerzGateway(cfg *config.GatewayConfig) *SSLCommerzGateway {
	return &SSLCommerzGateway{
		baseURL:       cfg.SSLCommerzBaseURL,
		storeID:       cfg.StoreID,
		storePassword: cfg.StorePassword,
		client:        &http.Client{Timeout: cfg.Timeout},
	}
}

type sslczSessionRequest struct {
	StoreID       string            `json:"store_id"`
	StorePassword string            `json:"store_passwd"`
	TotalAmount   int               `json:"total_amount"`
	Currency      string            `json:"currency"`
	ValueA        map[string]string `json:"value_a,omitempty"`
}

type sslczSessionResponse struct {
	Status     string `json:"status"`
	SessionKey string `json:"sessionkey"`
	GatewayURL string `json:"GatewayPageURL"`
}

type sslczValidateRequest struct {
	SessionKey    string `json:"sessionkey"`
	ValID         string `json:"val_id,omitempty"`
	StoreID       string `json:"store_id"`
	StorePassword string `json:"store_passwd"`
}

type sslczStatusResponse struct {
	Status string `json:"status"`
}

func (g *SSLCommerzGateway) CreatePayment(ctx context.Context, amount int, metadata map[string]string) (*payment.CreatePaymentResult, error) {
	start := time.Now()
	var resp sslczSessionResponse
	_, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/gwprocess/v4/api.php", &sslczSessionRequest{
		StoreID:       g.storeID,
		StorePassword: g.storePassword,
		TotalAmount:   amount,
		Currency:      "BDT",
		ValueA:        metadata,
	}, &resp)
	observe("sslcommerz", "create", start, err)
	if err != nil {
		return nil, err
	}
	if resp.Status == "FAILED" {
		return nil, payment.ErrPaymentFailed
	}
	return &payment.CreatePaymentResult{
		GatewayPaymentID: resp.SessionKey,
		RedirectURL:      resp.GatewayURL,
	}, nil
}

func (g *SSLCommerzGateway) ExecutePayment(ctx context.Context, gatewayPaymentID, providerRef string) (payment.GatewayStatus, error) {
	start := time.Now()
	var resp sslczStatusResponse
	_, err := doJSON(ctx, g.client, http.MethodPost, g.baseURL+"/validator/api/validationserverAPI.php", &sslczValidateRequest{
		SessionKey:    gatewayPaymentID,
		ValID:         providerRef,
		StoreID:       g.storeID,
		StorePassword: g.storePassword,
	}, &resp)
	observe("sslcommerz", "execute", start, err)
	if err != nil {
		return payment.GatewayPending, err
	}
	return translateSSLCommerzStatus(resp.Status), nil
}

func (g *SSLCommerzGateway) QueryStatus(ctx context.Context, gatewayPaymentID string) (payment.GatewayStatus, error) {
	start := time.Now()
	var resp sslczStatusResponse
	_, err := doJSON(ctx, g.client, http.MethodGet, g.baseURL+"/validator/api/merchantTransIDvalidationAPI.php?sessionkey="+gatewayPaymentID, nil, &resp)
	observe("sslcommerz", "query", start, err)
	if err != nil {
		return payment.GatewayPending, err
	}
	return translateSSLCommerzStatus(resp.Status), nil
}

func translateSSLCommerzStatus(s string) payment.GatewayStatus {
	switch s {
	case "VALID", "VALIDATED":
		return payment.GatewaySuccess
	case "FAILED", "CANCELLED", "INVALID_TRANSACTION":
		return payment.GatewayFailed
	default:
		return payment.GatewayPending
	}
}

var _ payment.Gateway = (*SSLCommerzGateway)(nil)
