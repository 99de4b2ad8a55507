package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-bus-ticket-booking/internal/application"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/booking"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/payment"
	"github.com/sanosuguru/go-bus-ticket-booking/internal/domain/seatlock"
)

type PaymentHandler struct {
	service BookingServiceInterface
}

func NewPaymentHandler(s BookingServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type InitiatePaymentRequest struct {
	LockID         string `json:"lock_id" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Method         string `json:"method" validate:"required,oneof=bkash sslcommerz cash other" example:"bkash"`
	PassengerName  string `json:"passenger_name" validate:"required" example:"Rahim Uddin"`
	PassengerPhone string `json:"passenger_phone" validate:"required" example:"01712345678"`
}

type ConfirmPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	ProviderRef   string `json:"provider_ref"`
}

type PaymentAttemptResponse struct {
	TransactionID    string     `json:"transaction_id"`
	LockID           string     `json:"lock_id"`
	Amount           int        `json:"amount"`
	Method           string     `json:"method"`
	Status           string     `json:"status"`
	GatewayPaymentID *string    `json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

type PaymentStatusResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status,omitempty"`
	GatewayStatus string `json:"gateway_status,omitempty"`
}

func toPaymentAttemptResponse(a *payment.Attempt) PaymentAttemptResponse {
	return PaymentAttemptResponse{
		TransactionID:    a.TransactionID,
		LockID:           a.LockID,
		Amount:           a.Amount,
		Method:           string(a.Method),
		Status:           string(a.Status),
		GatewayPaymentID: a.GatewayPaymentID,
		CreatedAt:        a.CreatedAt,
		CompletedAt:      a.CompletedAt,
	}
}

// Initiate godoc
// @Summary 決済を開始
// @Description 保持中のロックに対してゲートウェイ決済を作成します
// @Tags payments
// @Accept json
// @Produce json
// @Param X-Owner-Token header string true "オーナートークン"
// @Param request body InitiatePaymentRequest true "決済情報"
// @Success 201 {object} PaymentAttemptResponse
// @Failure 400 {object} map[string]string
// @Failure 410 {object} map[string]string "ロック期限切れ"
// @Failure 502 {object} map[string]string "ゲートウェイ利用不可"
// @Router /payments [post]
func (h *PaymentHandler) Initiate(c echo.Context) error {
	ownerToken := c.Request().Header.Get(ownerTokenHeader)
	if ownerToken == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "オーナートークンが必要です")
	}
	var req InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	attempt, err := h.service.InitiatePayment(c.Request().Context(), application.InitiatePaymentInput{
		LockID:         req.LockID,
		OwnerToken:     ownerToken,
		Method:         payment.Method(req.Method),
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
	})
	if err != nil {
		return paymentErrorResponse(err)
	}
	return c.JSON(http.StatusCreated, toPaymentAttemptResponse(attempt))
}

// Confirm godoc
// @Summary 決済を確定
// @Description ゲートウェイで決済を実行し、成功時に予約を確定します（冪等）
// @Tags payments
// @Accept json
// @Produce json
// @Param request body ConfirmPaymentRequest true "確定情報"
// @Success 200 {object} BookingResponse
// @Failure 402 {object} map[string]string "決済失敗"
// @Failure 409 {object} map[string]string "座席喪失"
// @Failure 502 {object} map[string]string "ゲートウェイ利用不可"
// @Router /payments/confirm [post]
func (h *PaymentHandler) Confirm(c echo.Context) error {
	var req ConfirmPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	bk, err := h.service.ConfirmPayment(c.Request().Context(), application.ConfirmPaymentInput{
		TransactionID: req.TransactionID,
		ProviderRef:   req.ProviderRef,
	})
	if err != nil {
		return paymentErrorResponse(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(bk))
}

// Status godoc
// @Summary 決済状態を取得
// @Description 記録済みの決済試行の状態を返します（ゲートウェイには問い合わせません）
// @Tags payments
// @Produce json
// @Param transaction_id path string true "トランザクションID"
// @Success 200 {object} PaymentStatusResponse
// @Failure 404 {object} map[string]string
// @Router /payments/{transaction_id}/status [get]
func (h *PaymentHandler) Status(c echo.Context) error {
	attempt, err := h.service.GetPayment(c.Request().Context(), c.Param("transaction_id"))
	if err != nil {
		return paymentErrorResponse(err)
	}
	return c.JSON(http.StatusOK, PaymentStatusResponse{
		TransactionID: attempt.TransactionID,
		Status:        string(attempt.Status),
	})
}

// WaitForResolution godoc
// @Summary 決済結果を待機
// @Description ゲートウェイの決済結果が確定するまでポーリングします
// @Tags payments
// @Produce json
// @Param transaction_id path string true "トランザクションID"
// @Success 200 {object} PaymentStatusResponse
// @Failure 404 {object} map[string]string
// @Failure 504 {object} map[string]string "待機タイムアウト"
// @Router /payments/{transaction_id}/wait [get]
func (h *PaymentHandler) WaitForResolution(c echo.Context) error {
	transactionID := c.Param("transaction_id")

	status, err := h.service.WaitForResolution(c.Request().Context(), transactionID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return echo.NewHTTPError(http.StatusGatewayTimeout, "決済結果の待機がタイムアウトしました")
		}
		return paymentErrorResponse(err)
	}
	return c.JSON(http.StatusOK, PaymentStatusResponse{
		TransactionID: transactionID,
		GatewayStatus: string(status),
	})
}

// paymentErrorResponse は決済操作のエラーをHTTPステータスに変換する
func paymentErrorResponse(err error) error {
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, seatlock.ErrLockNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, seatlock.ErrNotLockOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, seatlock.ErrLockExpired), errors.Is(err, seatlock.ErrLockNotHeld):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, payment.ErrPaymentFailed):
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, payment.ErrPaymentPending):
		return echo.NewHTTPError(http.StatusAccepted, err.Error())
	case errors.Is(err, payment.ErrPaymentExpired):
		return echo.NewHTTPError(http.StatusGone, err.Error())
	case errors.Is(err, booking.ErrSeatsNoLongerHeld):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrSeatAlreadyBooked):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
