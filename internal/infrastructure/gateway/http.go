package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/pkg/metrics"
)

// doJSON はJSONリクエストを送信し、レスポンスを out にデコードする
// ネットワークエラーと5xxは一時障害として payment.ErrGatewayUnavailable に分類する
func doJSON(ctx context.Context, client *http.Client, method, url string, body, out interface{}) (int, error) {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("リクエストのエンコードに失敗: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return 0, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("%w: ステータスコード %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return resp.StatusCode, fmt.Errorf("ゲートウェイがエラーを返しました: ステータスコード %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("レスポンスのデコードに失敗: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// observe はゲートウェイ呼び出しの所要時間をメトリクスに記録する
func observe(provider, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.Get().GatewayRequestDuration.WithLabelValues(provider, operation, status).Observe(time.Since(start).Seconds())
}
