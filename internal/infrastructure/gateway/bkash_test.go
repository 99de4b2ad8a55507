package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/config"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
)

func newBkashGateway(baseURL string) *BkashGateway {
	return NewBkashGateway(&config.GatewayConfig{
		BkashBaseURL: baseURL,
		Timeout:      2 * time.Second,
	})
}

func TestBkashGateway_CreatePayment(t *testing.T) {
	t.Run("決済を作成すると参照IDとチェックアウトURLが返る", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/checkout/create", r.URL.Path)

			var req bkashCreateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "1500", req.Amount)
			assert.Equal(t, "BDT", req.Currency)

			json.NewEncoder(w).Encode(bkashCreateResponse{
				PaymentID: "TR0011abc",
				BkashURL:  "https://checkout.example/TR0011abc",
			})
		}))
		defer server.Close()

		result, err := newBkashGateway(server.URL).CreatePayment(context.Background(), 1500, map[string]string{"transaction_id": "txn-1"})
		require.NoError(t, err)
		assert.Equal(t, "TR0011abc", result.GatewayPaymentID)
		assert.Equal(t, "https://checkout.example/TR0011abc", result.RedirectURL)
	})

	t.Run("5xxは一時障害として扱う", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := newBkashGateway(server.URL).CreatePayment(context.Background(), 1500, nil)
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})

	t.Run("接続できない場合も一時障害として扱う", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		_, err := newBkashGateway(server.URL).CreatePayment(context.Background(), 1500, nil)
		assert.ErrorIs(t, err, payment.ErrGatewayUnavailable)
	})
}

func TestBkashGateway_ExecutePayment(t *testing.T) {
	tests := []struct {
		name              string
		transactionStatus string
		want              payment.GatewayStatus
	}{
		{"Completedは成功", "Completed", payment.GatewaySuccess},
		{"Failedは失敗", "Failed", payment.GatewayFailed},
		{"Cancelledは失敗", "Cancelled", payment.GatewayFailed},
		{"Initiatedは未解決", "Initiated", payment.GatewayPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/checkout/execute", r.URL.Path)
				json.NewEncoder(w).Encode(bkashStatusResponse{
					PaymentID:         "TR0011abc",
					TransactionStatus: tt.transactionStatus,
				})
			}))
			defer server.Close()

			status, err := newBkashGateway(server.URL).ExecutePayment(context.Background(), "TR0011abc", "ref-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestBkashGateway_QueryStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/checkout/payment/status/TR0011abc", r.URL.Path)
		json.NewEncoder(w).Encode(bkashStatusResponse{
			PaymentID:         "TR0011abc",
			TransactionStatus: "Completed",
		})
	}))
	defer server.Close()

	status, err := newBkashGateway(server.URL).QueryStatus(context.Background(), "TR0011abc")
	require.NoError(t, err)
	assert.Equal(t, payment.GatewaySuccess, status)
}
